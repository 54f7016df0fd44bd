// SPDX-License-Identifier: GPL-2.0-only

package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/relavak/temperd/hostusb"
	"github.com/relavak/temperd/temper"
)

const (
	logLevelAll   = "all"
	logLevelDebug = "debug"
	logLevelInfo  = "info"
	logLevelWarn  = "warn"
	logLevelError = "error"
	logLevelNone  = "none"
)

var (
	availableLogLevels = strings.Join([]string{
		logLevelAll,
		logLevelDebug,
		logLevelInfo,
		logLevelWarn,
		logLevelError,
		logLevelNone,
	}, ", ")
)

// Main is the principal function for the binary, wrapped only by `main` for convenience.
func Main() error {
	if err := initConfig(); err != nil {
		return err
	}

	extraProducts, err := getConfiguredProducts()
	if err != nil {
		return err
	}

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logLevel := viper.GetString("log-level")
	switch logLevel {
	case logLevelAll:
		logger = level.NewFilter(logger, level.AllowAll())
	case logLevelDebug:
		logger = level.NewFilter(logger, level.AllowDebug())
	case logLevelInfo:
		logger = level.NewFilter(logger, level.AllowInfo())
	case logLevelWarn:
		logger = level.NewFilter(logger, level.AllowWarn())
	case logLevelError:
		logger = level.NewFilter(logger, level.AllowError())
	case logLevelNone:
		logger = level.NewFilter(logger, level.AllowNone())
	default:
		return fmt.Errorf("log level %v unknown; possible values are: %s", logLevel, availableLogLevels)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	registry, err := temper.NewRegistry(extraProducts...)
	if err != nil {
		return errors.Wrap(err, "failed to build product registry")
	}

	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	temperatureGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "temperd_temperature_celsius",
		Help: "The last temperature read from the device, per sensor.",
	}, []string{"sensor"})
	pollsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "temperd_polls_total",
		Help: "The total number of poll cycles attempted.",
	})
	pollErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "temperd_poll_errors_total",
		Help: "The total number of poll cycles that failed.",
	})
	r.MustRegister(temperatureGauge, pollsTotal, pollErrorsTotal)

	host := hostusb.New()
	defer func() { _ = host.Close() }()

	session, err := temper.FindNth(
		host,
		registry,
		viper.GetInt("device"),
		viper.GetDuration("timeout"),
		logger,
	)
	if err != nil {
		return errors.Wrap(err, "failed to open device session")
	}
	defer session.Close()

	if err := session.Initialize(); err != nil {
		return errors.Wrap(err, "device handshake failed")
	}
	_ = logger.Log("msg", "device session established", "product", session.Product().Name)

	var g run.Group
	{
		// Run the HTTP server.
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))
		listen := viper.GetString("listen")
		l, err := net.Listen("tcp", listen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %v", listen, err)
		}

		g.Add(func() error {
			if err := http.Serve(l, mux); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server exited unexpectedly: %v", err)
			}
			return nil
		}, func(error) {
			_ = l.Close()
		})
	}

	{
		// Exit gracefully on SIGINT and SIGTERM.
		term := make(chan os.Signal, 1)
		signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)
		cancel := make(chan struct{})
		g.Add(func() error {
			for {
				select {
				case <-term:
					_ = logger.Log("msg", "caught interrupt; gracefully cleaning up; see you next time!")
					return nil
				case <-cancel:
					return nil
				}
			}
		}, func(error) {
			close(cancel)
		})
	}

	{
		// Run the poll loop.
		p := poller{
			session:          session,
			interval:         viper.GetDuration("interval"),
			count:            viper.GetInt("count"),
			out:              os.Stdout,
			logger:           logger,
			temperatureGauge: temperatureGauge,
			pollsTotal:       pollsTotal,
			pollErrorsTotal:  pollErrorsTotal,
		}
		cancel := make(chan struct{})
		g.Add(func() error {
			return p.run(cancel)
		}, func(error) {
			close(cancel)
		})
	}

	return g.Run()
}

type poller struct {
	session  *temper.Session
	interval time.Duration
	count    int
	out      *os.File
	logger   log.Logger

	temperatureGauge *prometheus.GaugeVec
	pollsTotal       prometheus.Counter
	pollErrorsTotal  prometheus.Counter
}

// run polls the device every interval until cancelled or, when count is
// positive, until count cycles have been attempted. A failed cycle is
// logged and counted, then the loop goes on; the session itself stays
// valid across transport errors.
func (p *poller) run(cancel <-chan struct{}) error {
	_, _ = fmt.Fprintf(p.out, "timestamp\tinternal °C\texternal °C\n")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for cycle := 0; ; cycle++ {
		if p.count > 0 && cycle >= p.count {
			return nil
		}
		p.pollsTotal.Inc()
		reading, err := p.session.Read()
		if err != nil {
			p.pollErrorsTotal.Inc()
			_ = level.Warn(p.logger).Log("msg", "poll failed", "err", err)
		} else {
			_, _ = fmt.Fprintf(
				p.out,
				"%s\t%11.2f\t%11.2f\n",
				time.Now().Format(time.RFC3339),
				reading.TempA,
				reading.TempB,
			)
			p.temperatureGauge.WithLabelValues("internal").Set(float64(reading.TempA))
			p.temperatureGauge.WithLabelValues("external").Set(float64(reading.TempB))
		}

		select {
		case <-cancel:
			return nil
		case <-ticker.C:
		}
	}
}

func main() {
	if err := Main(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Execution failed: %v\n", err)
		os.Exit(1)
	}
}
