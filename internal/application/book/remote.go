package book

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// DefaultRemoteResults 外部搜索默认条数
const DefaultRemoteResults = 10

// RemoteCatalogueUseCase 外部书目浏览(搜索、详情),不落库
// 外部服务不可用时:搜索返回空列表,详情返回ErrRemoteBookNotFound
type RemoteCatalogueUseCase struct {
	lookup book.MetadataLookup
	log    logrus.FieldLogger
}

// NewRemoteCatalogueUseCase 创建外部书目用例
func NewRemoteCatalogueUseCase(lookup book.MetadataLookup, log logrus.FieldLogger) *RemoteCatalogueUseCase {
	return &RemoteCatalogueUseCase{lookup: lookup, log: log}
}

// Search 关键词搜索
func (uc *RemoteCatalogueUseCase) Search(ctx context.Context, query string, maxResults int) (list []*book.Metadata, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "SearchRemote")
	defer tracing.End(span, &err)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidField, "搜索关键词不能为空")
	}
	if maxResults <= 0 {
		maxResults = DefaultRemoteResults
	}

	list, err = uc.lookup.Search(ctx, query, maxResults)
	if err != nil {
		if apperrors.IsRemoteUnavailable(err) {
			logger.FromContext(ctx, uc.log).WithError(err).WithField("query", query).Warn("外部书目搜索失败,返回空结果")
			return []*book.Metadata{}, nil
		}
		return nil, err
	}
	return list, nil
}

// Get 按外部书目ID查询详情
func (uc *RemoteCatalogueUseCase) Get(ctx context.Context, externalID string) (md *book.Metadata, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetRemote")
	defer tracing.End(span, &err)

	md, err = uc.lookup.Lookup(ctx, externalID)
	if err != nil {
		if apperrors.IsRemoteUnavailable(err) {
			return nil, book.ErrRemoteBookNotFound.WithErr(err)
		}
		return nil, err
	}
	if md == nil {
		return nil, book.ErrRemoteBookNotFound
	}
	return md, nil
}
