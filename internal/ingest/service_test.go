package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-visualizer-backend/config"
	"equipment-visualizer-backend/internal/db"
	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
	"equipment-visualizer-backend/internal/store"
)

const header = "Equipment Name,Type,Flowrate,Pressure,Temperature\n"

// mockStore overrides the store methods used by the service. Any other call
// panics through the nil embedded interface.
type mockStore struct {
	store.Store
	CreateUploadFunc func(ctx context.Context, upload *model.Upload, rows []parse.Row) error
	PruneUploadsFunc func(ctx context.Context, userID uint, keep int) (int, error)
}

func (m *mockStore) CreateUpload(ctx context.Context, upload *model.Upload, rows []parse.Row) error {
	return m.CreateUploadFunc(ctx, upload, rows)
}

func (m *mockStore) PruneUploads(ctx context.Context, userID uint, keep int) (int, error) {
	return m.PruneUploadsFunc(ctx, userID, keep)
}

func newSQLiteStore(t *testing.T) store.Store {
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return store.NewGormStore(gormDB)
}

func TestIngest_RejectsBeforePersisting(t *testing.T) {
	svc := NewService(&mockStore{}, nil)

	testCases := []struct {
		name       string
		filename   string
		size       int64
		content    string
		validation bool
	}{
		{name: "Wrong extension", filename: "data.txt", size: 10, content: header, validation: true},
		{name: "Too large", filename: "data.csv", size: MaxUploadBytes + 1, content: header, validation: true},
		{name: "Missing columns", filename: "data.csv", size: 10, content: "Equipment Name,Type\nP,Pump\n", validation: true},
		{name: "Empty file", filename: "data.csv", size: 0, content: ""},
		{name: "Broken quoting", filename: "data.csv", size: 10, content: header + "\"P1,Pump,1,2,3\n"},
		{name: "Not UTF-8", filename: "data.csv", size: 10, content: header + "P\xff,Pump,1,2,3\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Ingest(context.Background(), 1, tc.filename, tc.size, strings.NewReader(tc.content))
			require.Error(t, err)
			assert.Nil(t, res)

			var vErr *ValidationError
			var pErr *ProcessingError
			if tc.validation {
				assert.True(t, errors.As(err, &vErr), "expected a validation error, got %v", err)
			} else {
				assert.True(t, errors.As(err, &pErr), "expected a processing error, got %v", err)
				assert.True(t, strings.HasPrefix(err.Error(), "Error processing CSV: "))
			}
		})
	}
}

func TestIngest_MissingColumnsNamesThem(t *testing.T) {
	svc := NewService(&mockStore{}, nil)
	_, err := svc.Ingest(context.Background(), 1, "x.csv", 10, strings.NewReader("Equipment Name,Type,Flowrate\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pressure")
	assert.Contains(t, err.Error(), "Temperature")
}

func TestIngest_SkipsBadRowsButCountsThem(t *testing.T) {
	s := newSQLiteStore(t)
	svc := NewService(s, nil)
	ctx := context.Background()

	user := &model.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))

	content := header +
		"Pump1,Pump,10,5,80\n" +
		"Bad,Mixer,notanumber,3,70\n"
	res, err := svc.Ingest(ctx, user.ID, "plant.csv", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Upload.TotalRecords)
	assert.Equal(t, 1, res.EquipmentCount)
	assert.Equal(t, 1, res.SkippedRows)
	assert.InDelta(t, 10.0, res.Upload.AvgFlowrate, 1e-9)
	assert.InDelta(t, 5.0, res.Upload.AvgPressure, 1e-9)
	assert.InDelta(t, 80.0, res.Upload.AvgTemperature, 1e-9)

	items, err := s.EquipmentForUpload(ctx, res.Upload.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pump1", items[0].EquipmentName)
	assert.Equal(t, model.TypePump, items[0].EquipmentType)
}

func TestIngest_TypeMapping(t *testing.T) {
	s := newSQLiteStore(t)
	svc := NewService(s, nil)
	ctx := context.Background()

	user := &model.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))

	content := header +
		"HX,Heat Exchanger,1,1,1\n" +
		"W,Widget,1,1,1\n"
	res, err := svc.Ingest(ctx, user.ID, "types.csv", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)

	items, err := s.EquipmentForUpload(ctx, res.Upload.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.TypeHeatExchanger, items[0].EquipmentType)
	assert.Equal(t, model.TypeOther, items[1].EquipmentType)
}

func TestIngest_RetentionKeepsFiveMostRecent(t *testing.T) {
	s := newSQLiteStore(t)
	svc := NewService(s, nil)
	ctx := context.Background()

	user := &model.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))

	var ids []uint
	for i := 0; i < 8; i++ {
		content := header + fmt.Sprintf("P%d,Pump,%d,1,1\n", i, i)
		res, err := svc.Ingest(ctx, user.ID, fmt.Sprintf("f%d.csv", i), int64(len(content)), strings.NewReader(content))
		require.NoError(t, err)
		ids = append(ids, res.Upload.ID)
	}

	recent, err := s.RecentUploads(ctx, user.ID, 100)
	require.NoError(t, err)
	require.Len(t, recent, RetentionLimit)
	for i, u := range recent {
		assert.Equal(t, ids[len(ids)-1-i], u.ID)
	}
}

func TestIngest_PruneFailureDoesNotFailUpload(t *testing.T) {
	var stored *model.Upload
	ms := &mockStore{
		CreateUploadFunc: func(ctx context.Context, upload *model.Upload, rows []parse.Row) error {
			upload.ID = 42
			stored = upload
			return nil
		},
		PruneUploadsFunc: func(ctx context.Context, userID uint, keep int) (int, error) {
			assert.Equal(t, RetentionLimit, keep)
			return 0, errors.New("database is locked")
		},
	}
	svc := NewService(ms, nil)

	content := header + "P,Pump,1,2,3\n"
	res, err := svc.Ingest(context.Background(), 7, "ok.csv", int64(len(content)), strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, uint(42), res.Upload.ID)
	require.NotNil(t, stored)
	assert.Equal(t, uint(7), stored.UserID)
	assert.Equal(t, "ok.csv", stored.Filename)
}
