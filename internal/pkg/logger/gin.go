package logger

import (
	"GameZone/internal/api/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type accessLog struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id,omitempty"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	ClientIP    string `json:"client_ip"`
}

// SetupGin 访问日志与 panic 恢复，健康检查不记录
func SetupGin(r *gin.Engine, cfg config.LogstashConfig) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: []string{"/api/ping"},
		Formatter: func(p gin.LogFormatterParams) string {
			var traceID string
			if id, ok := p.Keys[TraceIDKey].(string); ok {
				traceID = id
			}
			if traceID == "" && p.Request != nil {
				traceID = TraceID(p.Request.Context())
			}

			level := "INFO"
			if p.StatusCode >= 500 {
				level = "ERROR"
			}

			line, err := json.Marshal(accessLog{
				Time:        p.TimeStamp.Format(time.RFC3339),
				Level:       level,
				Msg:         "GIN_ACCESS",
				TraceID:     traceID,
				LogToken:    cfg.Token,
				TargetIndex: cfg.Index,
				Method:      p.Method,
				Path:        p.Path,
				Status:      p.StatusCode,
				Latency:     p.Latency.String(),
				ClientIP:    p.ClientIP,
			})
			if err != nil {
				return ""
			}
			return string(line) + "\n"
		},
	}))

	r.Use(gin.Recovery())
}
