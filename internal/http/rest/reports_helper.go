package rest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwise1/civic_circle/internal/http/reportstore"
	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/storage"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/h2non/filetype"
)

const maxImageBytes = 5 << 20

var (
	errImageTooLarge  = errors.New("image exceeds 5 MB")
	errImageType      = errors.New("image must be a jpeg, png, webp or gif")
	errImageReference = errors.New("image must be a data uri or an http(s) url")
	allowedImageMIMEs = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true, "image/gif": true}
)

// ListReportsHelper picks the store route from the query: keyword, status
// and category filters first, otherwise the (optionally paged) list.
func (api *API) ListReportsHelper(ctx context.Context, q url.Values) (model.ReportPage, string, string, error) {
	var (
		reports []model.Report
		err     error
	)

	switch {
	case strings.TrimSpace(q.Get("keyword")) != "":
		reports, err = api.Store.Search(ctx, strings.TrimSpace(q.Get("keyword")))
	case q.Get("status") != "":
		status, perr := model.ParseStatus(q.Get("status"))
		if perr != nil {
			return model.ReportPage{}, values.BadRequestBody, "invalid status filter", perr
		}
		reports, err = api.Store.ByStatus(ctx, status)
	case q.Get("category") != "":
		reports, err = api.Store.ByCategory(ctx, q.Get("category"))
	default:
		opts, perr := listOptions(q)
		if perr != nil {
			return model.ReportPage{}, values.BadRequestBody, perr.Error(), perr
		}
		page, err := api.Store.List(ctx, opts)
		if err != nil {
			return model.ReportPage{}, values.Upstream, "unable to load reports, please try again", err
		}
		return page, values.Success, "Reports retrieved successfully", nil
	}

	if err != nil {
		return model.ReportPage{}, values.Upstream, "unable to load reports, please try again", err
	}
	return model.ReportPage{Reports: reports, TotalCount: int64(len(reports)), TotalPages: 1},
		values.Success, "Reports retrieved successfully", nil
}

func listOptions(q url.Values) (reportstore.ListOptions, error) {
	var opts reportstore.ListOptions
	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 0 {
			return opts, errors.New("page must be a non-negative integer")
		}
		opts.Page = &page
	}
	if s := q.Get("size"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size < 1 || size > maxPageSize {
			return opts, errors.New("size must be between 1 and 100")
		}
		opts.Size = size
	}
	sortBy, sortDir, err := parseSort(q)
	if err != nil {
		return opts, err
	}
	opts.SortBy, opts.SortDir = sortBy, sortDir
	return opts, nil
}

func (api *API) CategoriesHelper(ctx context.Context) []string {
	stored, err := api.Store.Categories(ctx)
	if err != nil {
		logger.WithTracing(tracing.FromContext(ctx)).WithError(err).Warn("report store categories unavailable, using suggestions only")
	}
	return model.MergeCategories(model.SuggestedCategories(), stored)
}

func (api *API) CreateReportHelper(ctx context.Context, actor model.Actor, req model.CreateReportRequest) (model.Report, string, string, error) {
	if strings.TrimSpace(req.CreatedBy) == "" {
		req.CreatedBy = actor.Name
	}
	if strings.TrimSpace(req.Email) == "" {
		req.Email = actor.Email
	}
	if err := util.ValidateStruct(req); err != nil {
		return model.Report{}, values.BadRequestBody, "validation failed", err
	}

	image, err := api.prepareImage(ctx, req.Image)
	if err != nil {
		return model.Report{}, values.BadRequestBody, err.Error(), err
	}
	req.Image = image

	report, err := api.Store.Create(ctx, req)
	if err != nil {
		var verr *reportstore.ValidationError
		if errors.As(err, &verr) {
			return model.Report{}, values.BadRequestBody, "validation failed", err
		}
		return model.Report{}, values.Upstream, "unable to submit report, please try again", err
	}

	if api.Feed != nil {
		api.Feed.BroadcastReportCreated(report)
	}
	return report, values.Created, "Report submitted successfully", nil
}

// prepareImage checks an inline image by its content and moves it to
// Cloudinary when an uploader is configured.
func (api *API) prepareImage(ctx context.Context, image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", nil
	}
	if !strings.HasPrefix(image, "data:") {
		if !util.IsURL(image) || !(strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://")) {
			return "", errImageReference
		}
		return image, nil
	}

	_, data, err := util.DecodeDataURI(image)
	if err != nil {
		return "", errImageReference
	}
	if len(data) > maxImageBytes {
		return "", errImageTooLarge
	}
	kind, err := filetype.Match(data)
	if err != nil || !allowedImageMIMEs[kind.MIME.Value] {
		return "", errImageType
	}

	// re-encode with the sniffed type so the stored URI never lies about it
	normalised := fmt.Sprintf("data:%s;base64,%s", kind.MIME.Value, base64.StdEncoding.EncodeToString(data))
	if api.Images == nil {
		return normalised, nil
	}

	secureURL, err := api.Images.UploadImage(ctx, normalised, storage.ReportImageFolder)
	if err != nil {
		logger.WithTracing(tracing.FromContext(ctx)).WithError(err).Warn("image upload failed, keeping image inline")
		return normalised, nil
	}
	return secureURL, nil
}

func storeFieldErrors(err error) map[string]string {
	var verr *reportstore.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
