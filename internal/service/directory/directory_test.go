package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCustomersRepo mimics the customers table: one row per phone,
// enforced the way MySQL does, with error 1062 on a duplicate insert.
type memCustomersRepo struct {
	mu      sync.Mutex
	nextID  int64
	byPhone map[string]*model.Customer
}

func newMemCustomersRepo() *memCustomersRepo {
	return &memCustomersRepo{byPhone: map[string]*model.Customer{}}
}

func (r *memCustomersRepo) GetByPhone(_ context.Context, phone string) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byPhone[phone]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memCustomersRepo) Insert(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPhone[c.Phone]; ok {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.byPhone[c.Phone] = &cp
	return nil
}

func (r *memCustomersRepo) ListWithFeedback(context.Context) ([]repository.CustomerFeedback, error) {
	return nil, nil
}

func (r *memCustomersRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPhone)
}

func TestResolveOrCreate_CreatesThenReuses(t *testing.T) {
	repo := newMemCustomersRepo()
	svc := New(repo)

	first, err := svc.ResolveOrCreate(context.Background(), "254712345678", "Jane", "", "Doe")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Jane", first.FirstName)
	assert.Equal(t, "Doe", first.LastName)

	// second event from the same phone: names are discarded, not merged
	second, err := svc.ResolveOrCreate(context.Background(), "254712345678", "Janet", "W", "Smith")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Jane", second.FirstName)
	assert.Equal(t, "Doe", second.LastName)
	assert.Equal(t, 1, repo.count())
}

func TestResolveOrCreate_Concurrent(t *testing.T) {
	repo := newMemCustomersRepo()
	svc := New(repo)

	const n = 32
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.ResolveOrCreate(context.Background(), "254700000001", "Amina", "", "")
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, repo.count())
}

func TestResolveOrCreate_LosesRaceFallsBackToLookup(t *testing.T) {
	repo := &racingRepo{inner: newMemCustomersRepo()}
	svc := New(repo)

	c, err := svc.ResolveOrCreate(context.Background(), "254711222333", "Late", "", "Arrival")
	require.NoError(t, err)
	// the winner's row came back, not the loser's input
	assert.Equal(t, "Early", c.FirstName)
	assert.Equal(t, 1, repo.inner.count())
}

// racingRepo reports a miss on the first lookup and then lets another
// writer sneak in before Insert, like two webhooks landing together.
type racingRepo struct {
	inner  *memCustomersRepo
	looked bool
}

func (r *racingRepo) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	if !r.looked {
		r.looked = true
		return nil, nil
	}
	return r.inner.GetByPhone(ctx, phone)
}

func (r *racingRepo) Insert(ctx context.Context, c *model.Customer) error {
	_ = r.inner.Insert(ctx, &model.Customer{
		FirstName: "Early", Phone: c.Phone,
	})
	return r.inner.Insert(ctx, c)
}

func (r *racingRepo) ListWithFeedback(ctx context.Context) ([]repository.CustomerFeedback, error) {
	return r.inner.ListWithFeedback(ctx)
}

func TestLookup(t *testing.T) {
	repo := newMemCustomersRepo()
	svc := New(repo)

	_, err := svc.Lookup(context.Background(), "254799888777")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.ResolveOrCreate(context.Background(), "254799888777", "Otieno", "", "")
	require.NoError(t, err)

	found, err := svc.Lookup(context.Background(), "254799888777")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
