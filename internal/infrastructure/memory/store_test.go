package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	"github.com/jhoicas/obrador-api/internal/domain/repository"
)

func seedLedger(t *testing.T, s *Store) {
	t.Helper()
	l := entity.NewInventoryLedger("pan", "Pan", "unidad", time.Now())
	l.ReceiveStock(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100), nil)
	require.NoError(t, s.Ledgers().Save(context.Background(), l))
}

func TestRun_ConfirmaEscrituras(t *testing.T) {
	s := NewStore()
	seedLedger(t, s)
	ctx := context.Background()

	err := s.Run(ctx, func(repo repository.InventoryLedgerRepository) error {
		l, err := repo.GetForUpdate(ctx, "pan")
		if err != nil {
			return err
		}
		l.Lots[0].Reserved = decimal.NewFromInt(10)
		if err := repo.Save(ctx, l); err != nil {
			return err
		}
		// Dentro de la tx se lee lo escrito.
		again, err := repo.Get(ctx, "pan")
		if err != nil {
			return err
		}
		assert.True(t, again.Lots[0].Reserved.Equal(decimal.NewFromInt(10)))
		return repo.Save(ctx, again)
	})
	require.NoError(t, err)

	got, err := s.Ledgers().Get(ctx, "pan")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, got.Lots[0].Reserved.Equal(decimal.NewFromInt(10)))
}

func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	s := NewStore()
	seedLedger(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(repo repository.InventoryLedgerRepository) error {
		l, _ := repo.Get(ctx, "pan")
		l.Lots[0].Produced = decimal.Zero
		_ = repo.Save(ctx, l)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := s.Ledgers().Get(ctx, "pan")
	assert.True(t, got.Lots[0].Produced.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), got.Version)
}

func TestRun_DetectaEscrituraConcurrente(t *testing.T) {
	s := NewStore()
	seedLedger(t, s)
	ctx := context.Background()

	err := s.RunReplenishment(ctx, func(ledgers repository.InventoryLedgerRepository, _ repository.StockRequestRepository) error {
		l, err := ledgers.GetForUpdate(ctx, "pan")
		if err != nil {
			return err
		}
		// Otro escritor confirma entre la lectura y el commit.
		other, _ := s.Ledgers().Get(ctx, "pan")
		other.Lots[0].Reserved = decimal.NewFromInt(1)
		require.NoError(t, s.Ledgers().Save(ctx, other))

		l.Lots[0].Reserved = decimal.NewFromInt(50)
		return ledgers.Save(ctx, l)
	})
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)

	got, _ := s.Ledgers().Get(ctx, "pan")
	assert.True(t, got.Lots[0].Reserved.Equal(decimal.NewFromInt(1)))
}

func TestRun_LecturaObsoletaTambienConflictua(t *testing.T) {
	s := NewStore()
	seedLedger(t, s)
	req := &entity.StockRequest{ID: "r1", State: entity.RequestStateAccepted, CreatedAt: time.Now()}
	ctx := context.Background()
	require.NoError(t, s.Requests().Create(ctx, req))

	err := s.RunReplenishment(ctx, func(ledgers repository.InventoryLedgerRepository, requests repository.StockRequestRepository) error {
		if _, err := ledgers.Get(ctx, "pan"); err != nil {
			return err
		}
		r, _ := requests.GetForUpdate(ctx, "r1")
		other, _ := s.Ledgers().Get(ctx, "pan")
		require.NoError(t, s.Ledgers().Save(ctx, other))
		r.State = entity.RequestStateInProcess
		return requests.Update(ctx, r)
	})
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)

	got, _ := s.Requests().GetByID(ctx, "r1")
	assert.Equal(t, entity.RequestStateAccepted, got.State)
}

func TestUpdate_SinTxComparaVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	req := &entity.StockRequest{ID: "r1", State: entity.RequestStatePending}
	require.NoError(t, s.Requests().Create(ctx, req))
	assert.ErrorIs(t, s.Requests().Create(ctx, req), domain.ErrTransactionConflict)

	a, _ := s.Requests().GetByID(ctx, "r1")
	b, _ := s.Requests().GetByID(ctx, "r1")
	a.State = entity.RequestStateAccepted
	require.NoError(t, s.Requests().Update(ctx, a))
	b.State = entity.RequestStateRejected
	assert.ErrorIs(t, s.Requests().Update(ctx, b), domain.ErrTransactionConflict)
}

func TestGet_DevuelveCopias(t *testing.T) {
	s := NewStore()
	seedLedger(t, s)
	ctx := context.Background()

	l, _ := s.Ledgers().Get(ctx, "pan")
	l.Lots[0].Produced = decimal.Zero

	again, _ := s.Ledgers().Get(ctx, "pan")
	assert.True(t, again.Lots[0].Produced.Equal(decimal.NewFromInt(100)))

	missing, err := s.Ledgers().Get(ctx, "croissant")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListados_OrdenYPaginacion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		state := entity.RequestStatePending
		if id == "b" {
			state = entity.RequestStateAccepted
		}
		require.NoError(t, s.Requests().Create(ctx, &entity.StockRequest{
			ID: id, StoreID: "tienda-1", State: state, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := s.Requests().ListByStore(ctx, "tienda-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	pending, err := s.Requests().List(ctx, repository.StockRequestFilter{State: entity.RequestStatePending, OldestFirst: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)

	empty, err := s.Requests().List(ctx, repository.StockRequestFilter{}, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListMovements_MasRecientePrimero(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	l := entity.NewInventoryLedger("pan", "Pan", "unidad", time.Now())
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	_, err := l.RecordMovement(entity.Movement{Type: entity.MovementTypeEntrada, Timestamp: base})
	require.NoError(t, err)
	_, err = l.RecordMovement(entity.Movement{Type: entity.MovementTypeReserva, Timestamp: base.Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, s.Ledgers().Save(ctx, l))

	movs, err := s.Ledgers().ListMovements(ctx, "pan", 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeReserva, movs[0].Type)

	none, err := s.Ledgers().ListMovements(ctx, "croissant", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
