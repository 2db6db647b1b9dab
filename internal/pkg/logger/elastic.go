package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

const esSlowThreshold = 500 * time.Millisecond

// ESTransport 记录 ES 请求，非 2xx 响应带上请求体和响应体
type ESTransport struct {
	Transport http.RoundTripper
}

func (t *ESTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("method", req.Method),
		log.String("path", req.URL.Path),
		log.Duration("latency", elapsed),
	}

	if err != nil {
		fields = append(fields, log.String("req_body", truncate(string(reqBody))), log.Any("err", err))
		log.ErrorContext(req.Context(), "ES_QUERY_ERROR", fields...)
		return nil, err
	}
	fields = append(fields, log.Int("status", resp.StatusCode))

	// 版本冲突和文档不存在由调用方处理
	failed := resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict && resp.StatusCode != http.StatusNotFound
	if failed && resp.Body != nil {
		resBody, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(resBody))
		fields = append(fields,
			log.String("req_body", truncate(string(reqBody))),
			log.String("res_body", truncate(string(resBody))),
		)
	}

	switch {
	case failed:
		log.ErrorContext(req.Context(), "ES_QUERY_FAILED", fields...)
	case elapsed > esSlowThreshold:
		log.WarnContext(req.Context(), "ES_QUERY_SLOW", fields...)
	default:
		log.DebugContext(req.Context(), "ES_QUERY", fields...)
	}

	return resp, nil
}
