package maintenance

import (
	"context"

	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// ComputeStatistics 只读统计
func (r *Runner) ComputeStatistics(ctx context.Context) (result *job.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ComputeStatistics")
	defer tracing.End(span, &err)

	stats, err := r.bookRepo.Stats(ctx)
	if err != nil {
		r.log.WithError(err).Error("统计失败")
		return &job.Result{Status: job.ResultError, Message: err.Error()}, nil
	}

	r.log.WithField("total_books", stats.TotalBooks).Info("统计完成")

	return &job.Result{
		Status:  job.ResultSuccess,
		Message: "统计完成",
		Counts: map[string]int64{
			"total_books":   stats.TotalBooks,
			"total_reviews": stats.TotalReviews,
		},
		Details: stats,
	}, nil
}
