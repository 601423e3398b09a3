package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/georgia-health-dashboard/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServe_InvalidScheduleFailsBeforeListening(t *testing.T) {
	addr := freeAddr(t)
	cfg := &config.Config{
		HTTPAddr:        addr,
		ShutdownTimeout: time.Second,
		GeoJSONURL:      "counties.json",
		RegionPrefix:    "13",
		FetchTimeout:    time.Second,
		FetchCacheSize:  4,
		RenderWidth:     320,
		RenderHeight:    240,
		RenderCacheTTL:  time.Minute,
		ReloadSchedule:  "every now and then",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := serve(ctx, cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reload schedule")

	conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	if err == nil {
		conn.Close()
	}
	assert.Error(t, err, "nothing may be listening after a failed start")
}
