// Package googlebooks Google Books v1 volumes API客户端
//
// 实现book.MetadataLookup：
//   - 单次请求超时 + 5xx/网络错误指数退避重试
//   - 外层熔断器，连续失败后快速失败
//   - 所有失败统一返回RemoteUnavailable，查不到返回(nil, nil)
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const (
	tracerName = "googlebooks"

	// MaxSearchResults Google Books单次最多返回40条
	MaxSearchResults = 40
)

// errVolumeNotFound 内部使用，不计入熔断失败
var errVolumeNotFound = errors.New("volume not found")

// Client Google Books客户端
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	breaker      *circuitbreaker.CircuitBreaker
	log          logrus.FieldLogger
}

// NewClient 创建客户端
func NewClient(cfg config.GoogleBooksConfig, log logrus.FieldLogger) *Client {
	log = log.WithField("component", "googlebooks")

	breaker := circuitbreaker.NewCircuitBreaker("googlebooks", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			threshold := cfg.Breaker.FailureThreshold
			if threshold == 0 {
				threshold = 5
			}
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errVolumeNotFound)
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("熔断器状态变化")
			metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		breaker:      breaker,
		log:          log,
	}
}

// Lookup 按外部书目ID查询
func (c *Client) Lookup(ctx context.Context, externalID string) (md *book.Metadata, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Lookup")
	defer tracing.End(span, &err)

	var v volume
	found, err := c.get(ctx, "lookup", "/volumes/"+url.PathEscape(externalID), nil, &v)
	if err != nil || !found {
		return nil, err
	}
	return v.toMetadata(), nil
}

// Search 关键词搜索，maxResults限制在1..40
func (c *Client) Search(ctx context.Context, query string, maxResults int) (list []*book.Metadata, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Search")
	defer tracing.End(span, &err)

	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("printType", "books")

	var resp volumeList
	found, err := c.get(ctx, "search", "/volumes", params, &resp)
	if err != nil {
		return nil, err
	}

	list = make([]*book.Metadata, 0, len(resp.Items))
	if !found {
		return list, nil
	}
	for i := range resp.Items {
		list = append(list, resp.Items[i].toMetadata())
	}
	return list, nil
}

// FindBest 按书名+作者查找，取第一条
func (c *Client) FindBest(ctx context.Context, title, author string) (*book.Metadata, error) {
	query := fmt.Sprintf("intitle:%q", title)
	if author != "" && author != book.UnknownAuthor {
		query += fmt.Sprintf(" inauthor:%q", author)
	}

	list, err := c.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// get 发起GET请求并解析JSON，返回found=false表示404
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out interface{}) (bool, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.doWithRetry(ctx, endpoint, out)
	})
	metrics.ObserveHistogram(metrics.RemoteLookupDuration, time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.IncCounterVec(metrics.RemoteLookupsTotal, map[string]string{"op": op, "result": "found"})
		return true, nil
	case errors.Is(err, errVolumeNotFound):
		metrics.IncCounterVec(metrics.RemoteLookupsTotal, map[string]string{"op": op, "result": "not_found"})
		return false, nil
	default:
		metrics.IncCounterVec(metrics.RemoteLookupsTotal, map[string]string{"op": op, "result": "error"})
		c.log.WithError(err).WithField("op", op).Warn("外部书目请求失败")
		return false, apperrors.ErrRemoteUnavailable.WithErr(err)
	}
}

func (c *Client) doWithRetry(ctx context.Context, endpoint string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数退避
			wait := c.retryBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retryable, err := c.do(ctx, endpoint, out)
		if err == nil || !retryable {
			return err
		}
		lastErr = err
		c.log.WithError(err).WithField("attempt", attempt+1).Debug("外部书目请求失败，准备重试")
	}
	return fmt.Errorf("重试%d次后仍失败: %w", c.maxRetries, lastErr)
}

// do 单次请求，返回值retryable表示错误是否值得重试
func (c *Client) do(ctx context.Context, endpoint string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return isRetryableError(ctx, err), err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, errVolumeNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("外部书目服务返回%d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("外部书目服务返回%d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("解析响应失败: %w", err)
	}
	return false, nil
}

func isRetryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
