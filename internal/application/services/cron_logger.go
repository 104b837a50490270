package services

import (
	"context"
	"fmt"

	"btc-price-service/internal/infrastructure/logging"
)

// cronLogger adapta cron.Logger al logging estructurado
type cronLogger struct {
	job string
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug(context.Background(), "cron: "+msg, l.fields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.ErrorWithError(context.Background(), "cron: "+msg, err, l.fields(keysAndValues))
}

func (l cronLogger) fields(keysAndValues []interface{}) logging.Fields {
	fields := logging.Fields{"job": l.job}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
