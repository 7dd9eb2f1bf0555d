package errors

import (
	"github.com/certifi/gocertifi"
	"github.com/getsentry/sentry-go"
	"moff.io/wallet-connector/pkg/log"
	"os"
	"sync"
	"time"
)

var (
	reportersMu sync.RWMutex
	reporters   []Reporter
)

// 设置该变量，则错误不会上报
const debugMode = "DEBUG"

func report(err error) {
	if err == nil || os.Getenv(debugMode) != "" {
		return
	}
	reportersMu.RLock()
	defer reportersMu.RUnlock()
	for _, r := range reporters {
		r.Report(err)
	}
}

// Reporter 错误报告器
type Reporter interface {
	Report(error)
}

// AddReporter registers r for every *AndReport error.
func AddReporter(r Reporter) {
	reportersMu.Lock()
	defer reportersMu.Unlock()
	reporters = append(reporters, r)
}

type sentryReporter struct {
	limiter *rateLimiter
}

func (s *sentryReporter) Report(err error) {
	if limited, _ := s.limiter.limited(origin(err)); limited {
		return
	}
	sentry.CaptureException(err)
}

// NewSentryReporter
// 初始化sentry错误报告器. Errors raised from the same place are reported at
// most once per silent window.
// 环境变量DEBUG不为空时，不会产生错误上报
func NewSentryReporter(sentryDSN string, silent time.Duration) error {
	if sentryDSN == "" {
		log.Warn("empty DSN found, skipping sentry reporter initialization.")
		return nil
	}
	rootCAs, err := gocertifi.CACerts()
	if err != nil {
		return Wrap(err, "init sentry CA")
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:     sentryDSN,
		CaCerts: rootCAs,
	})
	if err != nil {
		return Wrap(err, "init sentry")
	}
	AddReporter(&sentryReporter{limiter: newRateLimiter(silent)})
	log.Info("sentry error reporter initialized.")
	return nil
}
