package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/parse"
)

func TestGormStore_Aggregates(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	st, err := s.EquipmentStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
	dist, err := s.TypeDistribution(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, dist)

	require.NoError(t, s.CreateUpload(ctx, &model.Upload{UserID: alice.ID, Filename: "a.csv"}, []parse.Row{
		{Name: "P1", Type: model.TypePump, Flowrate: 10, Pressure: 2, Temperature: 50},
		{Name: "M1", Type: model.TypeMixer, Flowrate: 20, Pressure: 4, Temperature: 70},
	}))
	require.NoError(t, s.CreateUpload(ctx, &model.Upload{UserID: alice.ID, Filename: "b.csv"}, []parse.Row{
		{Name: "P2", Type: model.TypePump, Flowrate: 30, Pressure: 6, Temperature: 90},
	}))
	require.NoError(t, s.CreateUpload(ctx, &model.Upload{UserID: bob.ID, Filename: "c.csv"}, []parse.Row{
		{Name: "B1", Type: model.TypeBoiler, Flowrate: 1000, Pressure: 1000, Temperature: 1000},
	}))

	st, err = s.EquipmentStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Count)
	assert.InDelta(t, 20.0, st.AvgFlowrate, 1e-9)
	assert.InDelta(t, 4.0, st.AvgPressure, 1e-9)
	assert.InDelta(t, 70.0, st.AvgTemperature, 1e-9)

	dist, err = s.TypeDistribution(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, map[model.EquipmentType]int64{model.TypePump: 2, model.TypeMixer: 1}, dist)
}

func TestGormStore_EquipmentCRUD(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	aliceUpload := &model.Upload{UserID: alice.ID, Filename: "a.csv", TotalRecords: 1}
	require.NoError(t, s.CreateUpload(ctx, aliceUpload, []parse.Row{
		{Name: "P1", Type: model.TypePump, Flowrate: 10, Pressure: 2, Temperature: 50},
	}))
	bobUpload := &model.Upload{UserID: bob.ID, Filename: "b.csv"}
	require.NoError(t, s.CreateUpload(ctx, bobUpload, nil))

	t.Run("Create is scoped to the caller's uploads", func(t *testing.T) {
		eq := &model.Equipment{UploadID: bobUpload.ID, EquipmentName: "X", EquipmentType: model.TypeOther}
		assert.ErrorIs(t, s.CreateEquipment(ctx, alice.ID, eq), ErrNotFound)

		eq = &model.Equipment{UploadID: aliceUpload.ID, EquipmentName: "R1", EquipmentType: model.TypeReactor, Flowrate: 5}
		require.NoError(t, s.CreateEquipment(ctx, alice.ID, eq))
		assert.NotZero(t, eq.ID)

		stored, err := s.UploadForUser(ctx, alice.ID, aliceUpload.ID)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, stored.AvgFlowrate, 1e-9, "stored averages are not recomputed")
	})

	t.Run("List filters by type and hides foreign records", func(t *testing.T) {
		all, err := s.ListEquipment(ctx, alice.ID, EquipmentFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		reactors, err := s.ListEquipment(ctx, alice.ID, EquipmentFilter{Type: model.TypeReactor})
		require.NoError(t, err)
		require.Len(t, reactors, 1)
		assert.Equal(t, "R1", reactors[0].EquipmentName)

		none, err := s.ListEquipment(ctx, bob.ID, EquipmentFilter{})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Update and delete", func(t *testing.T) {
		items, err := s.ListEquipment(ctx, alice.ID, EquipmentFilter{Type: model.TypePump})
		require.NoError(t, err)
		require.Len(t, items, 1)
		eq := items[0]
		created := eq.CreatedAt

		eq.EquipmentName = "P1-renamed"
		eq.Flowrate = 0
		require.NoError(t, s.UpdateEquipment(ctx, alice.ID, &eq))

		reloaded, err := s.EquipmentForUser(ctx, alice.ID, eq.ID)
		require.NoError(t, err)
		assert.Equal(t, "P1-renamed", reloaded.EquipmentName)
		assert.Zero(t, reloaded.Flowrate)
		assert.True(t, created.Equal(reloaded.CreatedAt), "created_at is immutable")

		moved := *reloaded
		moved.UploadID = bobUpload.ID
		assert.ErrorIs(t, s.UpdateEquipment(ctx, alice.ID, &moved), ErrNotFound)

		_, err = s.EquipmentForUser(ctx, bob.ID, eq.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteEquipment(ctx, bob.ID, eq.ID), ErrNotFound)
		require.NoError(t, s.DeleteEquipment(ctx, alice.ID, eq.ID))
		assert.ErrorIs(t, s.DeleteEquipment(ctx, alice.ID, eq.ID), ErrNotFound)
	})
}
