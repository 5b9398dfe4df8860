package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-visualizer-backend/config"
	"equipment-visualizer-backend/internal/api"
	"equipment-visualizer-backend/internal/db"
	"equipment-visualizer-backend/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })

	server := httptest.NewServer(api.NewRouter(store.NewGormStore(gormDB), nil, api.RouterOptions{RateLimitPerSec: 100, RateLimitBurst: 100}))
	t.Cleanup(server.Close)
	return server
}

func cevctl(t *testing.T, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	server := newServer(t)
	base := server.URL + "/api"

	code, out, errOut := cevctl(t, "-url", base, "register", "-username", "alice", "-password", "pw")
	require.Equal(t, 0, code, errOut)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &auth))
	require.NotEmpty(t, auth.Token)

	code, _, errOut = cevctl(t, "-url", base, "login", "-username", "alice", "-password", "wrong")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Invalid credentials\n", errOut)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "plant.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Pump,10,5,80\n"), 0o600))

	code, out, errOut = cevctl(t, "-url", base, "-token", auth.Token, "upload", csvPath)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"equipment_count": 1`)

	code, out, errOut = cevctl(t, "-url", base, "-token", auth.Token, "summary")
	require.Equal(t, 0, code, errOut)
	var sum struct {
		TotalCount int64            `json:"total_count"`
		History    []map[string]any `json:"history"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, int64(1), sum.TotalCount)
	assert.Len(t, sum.History, 1)

	reportPath := filepath.Join(dir, "out.pdf")
	code, out, errOut = cevctl(t, "-url", base, "-token", auth.Token, "report", "-o", reportPath)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, reportPath, strings.TrimSpace(out))
	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))

	code, _, errOut = cevctl(t, "-url", base, "-token", auth.Token, "report", "-upload", "999")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Not found.\n", errOut)

	code, _, _ = cevctl(t, "-url", base, "-token", auth.Token, "logout")
	assert.Equal(t, 0, code)
	code, _, _ = cevctl(t, "-url", base, "-token", auth.Token, "history")
	assert.Equal(t, 1, code)
}

func TestRun_Usage(t *testing.T) {
	code, _, errOut := cevctl(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: cevctl")

	code, _, errOut = cevctl(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)
}
