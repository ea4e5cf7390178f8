package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const (
	maxAuditBody = 64 << 10
	redacted     = "[REDACTED]"
)

var sensitiveKeys = map[string]struct{}{
	"password": {},
	"code":     {},
	"otp":      {},
}

// AuditRecorder receives one entry per finished request.
type AuditRecorder interface {
	Record(entry *models.APILog)
}

// AuditLog records every request passing through it. The JSON body is
// captured with secrets masked and then restored for the handler. A panic
// is recorded as a 500 and re-raised.
func AuditLog(rec AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		body := captureBody(c.Request)

		finish := func(status int, errMsg string) {
			entry := &models.APILog{
				Method:      c.Request.Method,
				Path:        c.Request.URL.Path,
				StatusCode:  status,
				DurationMs:  time.Since(start).Milliseconds(),
				IPAddress:   ClientIP(c.Request),
				RequestBody: body,
			}
			if ua := c.Request.UserAgent(); ua != "" {
				entry.UserAgent = &ua
			}
			if errMsg != "" {
				entry.ErrorMessage = &errMsg
			}
			if sess, ok := SessionFrom(c); ok {
				if id, err := sess.SubjectUUID(); err == nil {
					entry.UserID = &id
				}
			}
			rec.Record(entry)
		}

		defer func() {
			if r := recover(); r != nil {
				finish(http.StatusInternalServerError, fmt.Sprint(r))
				panic(r)
			}
		}()

		c.Next()

		errMsg := ""
		if last := c.Errors.Last(); last != nil {
			errMsg = last.Error()
		}
		finish(c.Writer.Status(), errMsg)
	}
}

// captureBody reads a JSON body for the audit row and puts it back on req.
func captureBody(req *http.Request) datatypes.JSON {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}
	if req.Body == nil || !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(req.Body, maxAuditBody+1))
	rest := req.Body
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil || len(raw) == 0 || len(raw) > maxAuditBody {
		return nil
	}
	return RedactJSON(raw)
}

// RedactJSON masks password, code and otp values at any depth. Input that
// is not valid JSON is dropped.
func RedactJSON(raw []byte) datatypes.JSON {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	out, err := json.Marshal(redact(v))
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				t[k] = redacted
				continue
			}
			t[k] = redact(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = redact(t[i])
		}
		return t
	default:
		return v
	}
}

// ClientIP is the first X-Forwarded-For hop, else X-Real-IP.
func ClientIP(req *http.Request) *string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return &ip
		}
	}
	if ip := strings.TrimSpace(req.Header.Get("X-Real-IP")); ip != "" {
		return &ip
	}
	return nil
}
