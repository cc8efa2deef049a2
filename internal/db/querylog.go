package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/chargeyard/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// QueryLogger routes GORM's query log through zap: failed statements at
// error level, statements over the slow threshold at warn level.
type QueryLogger struct {
	log           *zap.Logger
	slowThreshold time.Duration
	level         logger.LogLevel
}

// NewQueryLogger returns a GORM logger backed by log.
func NewQueryLogger(log *zap.Logger, slowThreshold time.Duration) *QueryLogger {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &QueryLogger{log: log, slowThreshold: slowThreshold, level: logger.Warn}
}

func (l *QueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *QueryLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *QueryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	took := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		l.log.Error("query failed", zap.String("sql", truncate(sql)), zap.Int64("rows", rows), zap.Duration("took", took), zap.Error(err))
	case took > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warn("slow query", zap.String("sql", truncate(sql)), zap.Int64("rows", rows), zap.Duration("took", took))
		metrics.IncrementSlowQuery(tableOf(sql))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", truncate(sql)), zap.Int64("rows", rows), zap.Duration("took", took))
	}
}

func truncate(sql string) string {
	if len(sql) > 200 {
		return sql[:200] + "..."
	}
	return sql
}

// tableOf guesses the table a statement targets, for metric labels.
func tableOf(sql string) string {
	fields := strings.Fields(sql)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(fields) {
				return strings.Trim(fields[i+1], "`\"();")
			}
		}
	}
	return "unknown"
}
