package service

import (
	"context"
	"sync"
	"time"

	"github.com/vds/vds-go/internal/authclient"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/repository"
)

// fakeAccounts is an in-memory AccountStore that enforces email uniqueness on insert.
type fakeAccounts struct {
	mu         sync.Mutex
	byEmail    map[string]model.Account
	nextID     int64
	finds      int
	saves      int
	saveErr    error
	findErr    error
	beforeSave func()
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: make(map[string]model.Account)}
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return model.Account{}, f.findErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return model.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccounts) ListByName(_ context.Context, name string) ([]model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Account
	for _, a := range f.byEmail {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) Save(_ context.Context, a *model.Account) error {
	if f.beforeSave != nil {
		f.beforeSave()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	if a.ID == 0 {
		if _, exists := f.byEmail[a.Email]; exists {
			return repository.ErrDuplicateEmail
		}
		f.nextID++
		a.ID = f.nextID
	}
	f.byEmail[a.Email] = *a
	return nil
}

func (f *fakeAccounts) put(a model.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.byEmail[a.Email] = a
}

func (f *fakeAccounts) counts() (finds, saves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds, f.saves
}

// fakeCredentials records CreateCredential calls. With block set it waits for
// the context to end, standing in for an auth service that never answers.
type fakeCredentials struct {
	mu        sync.Mutex
	usernames map[string]bool
	creates   []string
	secrets   []string
	err       error
	block     bool
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{usernames: make(map[string]bool)}
}

func (f *fakeCredentials) CreateCredential(ctx context.Context, username, secret string) (model.Credential, error) {
	f.mu.Lock()
	f.creates = append(f.creates, username)
	f.secrets = append(f.secrets, secret)
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return model.Credential{}, ctx.Err()
	}
	if err != nil {
		return model.Credential{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usernames[username] {
		return model.Credential{}, &authclient.APIError{StatusCode: 409, Message: "username already exists"}
	}
	f.usernames[username] = true
	return model.Credential{Username: username, CreatedAt: time.Now()}, nil
}

func (f *fakeCredentials) FindByUsername(_ context.Context, username string) (model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Credential{}, f.err
	}
	if !f.usernames[username] {
		return model.Credential{}, &authclient.APIError{StatusCode: 404}
	}
	return model.Credential{Username: username}, nil
}

func (f *fakeCredentials) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

// stepClock returns start, then start+step, start+2*step, ...
type stepClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{next: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}
