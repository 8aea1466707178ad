package configuration

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"silent": logrus.PanicLevel,
		"error":  logrus.ErrorLevel,
		"warn":   logrus.WarnLevel,
		"info":   logrus.InfoLevel,
		"debug":  logrus.DebugLevel,
		"bogus":  logrus.ErrorLevel,
		"":       logrus.ErrorLevel,
	}
	for in, want := range cases {
		c := &Configuration{LogLevel: in}
		require.Equal(t, want, c.LogrusLogLevel(), "level %q", in)
	}
}

func TestImportOptionsValidate(t *testing.T) {
	valid := ImportOptions{BatchSize: 20, GatewayTimeout: 10 * time.Second}
	require.NoError(t, valid.Validate())

	badSize := ImportOptions{BatchSize: 0, GatewayTimeout: time.Second}
	require.Error(t, badSize.Validate())

	badTimeout := ImportOptions{BatchSize: 5, GatewayTimeout: 0}
	require.Error(t, badTimeout.Validate())
}

func TestDatabaseConnectionString(t *testing.T) {
	d := DatabaseOptions{
		Name: "desk", Host: "db", Port: "5433", User: "app", Password: "secret",
	}
	require.Equal(t,
		"host=db port=5433 user=app dbname=desk password=secret sslmode=disable",
		d.ConnectionString(),
	)
}
