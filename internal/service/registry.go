package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/validation"
)

// SignUp registers name and leaves the new account logged in.
func (n *Network) SignUp(ctx context.Context, name, password string) (view models.AccountView, err error) {
	ctx, done := n.begin(ctx, "sign_up")
	defer done(&err)

	if verr := validation.ValidateUsername(name); verr != nil {
		return models.AccountView{}, models.NewValidationError(verr.Error())
	}

	n.mu.Lock()
	_, exists := n.byName[name]
	n.mu.Unlock()
	if exists {
		return models.AccountView{}, models.ErrDuplicateUsername
	}
	if perr := validation.ValidatePassword(password); perr != nil {
		return models.AccountView{}, &models.AppError{Code: models.CodeInvalidPassword, Message: perr.Error()}
	}

	// Hashing is slow; keep it outside the lock.
	hash, herr := bcrypt.GenerateFromPassword([]byte(password), n.bcryptCost)
	if herr != nil {
		return models.AccountView{}, models.NewInternalError(fmt.Errorf("hash password: %w", herr))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.byName[name]; exists {
		return models.AccountView{}, models.ErrDuplicateUsername
	}

	n.nextAccountID++
	a := &models.Account{
		ID:            n.nextAccountID,
		Name:          name,
		PasswordHash:  hash,
		Authenticated: true,
		CreatedAt:     n.now(),
	}
	n.accounts = append(n.accounts, a)
	n.byName[name] = a
	n.byID[a.ID] = a
	n.loggedIn = append(n.loggedIn, a)

	observability.AccountsRegistered.Inc()
	n.logger.Event(ctx, "account created", accountAttr("account", a), slog.Uint64("account_id", uint64(a.ID)))
	return a.View(), nil
}

// LogIn authenticates name with password. Logging in twice keeps a single
// logged-in entry.
func (n *Network) LogIn(ctx context.Context, name, password string) (err error) {
	ctx, done := n.begin(ctx, "log_in")
	defer done(&err)

	n.mu.Lock()
	a, ok := n.byName[name]
	var hash []byte
	if ok {
		hash = a.PasswordHash
	}
	n.mu.Unlock()

	if !ok || !passwordMatches(hash, password) {
		return models.ErrWrongCredential
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	a.Authenticated = true
	if !n.isLoggedIn(a) {
		n.loggedIn = append(n.loggedIn, a)
	}
	n.logger.Event(ctx, "account connected", accountAttr("account", a))
	return nil
}

// LogOut ends name's session.
func (n *Network) LogOut(ctx context.Context, name string) (err error) {
	ctx, done := n.begin(ctx, "log_out")
	defer done(&err)

	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.byName[name]
	if !ok || !n.isLoggedIn(a) {
		return models.ErrNotAuthenticated
	}

	n.loggedIn = models.RemoveAccount(n.loggedIn, a)
	a.Authenticated = false
	n.logger.Event(ctx, "account disconnected", accountAttr("account", a))
	return nil
}

// Account returns the public view of the named account.
func (n *Network) Account(name string) (models.AccountView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(name)
	if err != nil {
		return models.AccountView{}, err
	}
	return a.View(), nil
}

// AccountByID returns the public view of the account with id.
func (n *Network) AccountByID(id uint) (models.AccountView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.byID[id]
	if !ok {
		return models.AccountView{}, models.NewNotFoundError("Account", id)
	}
	return a.View(), nil
}

// SessionAccount returns the account for id only while it is logged in.
func (n *Network) SessionAccount(id uint) (models.AccountView, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.byID[id]
	if !ok || !n.isLoggedIn(a) {
		return models.AccountView{}, models.ErrNotAuthenticated
	}
	return a.View(), nil
}

// Accounts lists every account in registration order.
func (n *Network) Accounts() []models.AccountView {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]models.AccountView, len(n.accounts))
	for i, a := range n.accounts {
		out[i] = a.View()
	}
	return out
}

// IsLoggedIn reports whether name currently holds a session.
func (n *Network) IsLoggedIn(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, ok := n.byName[name]
	return ok && n.isLoggedIn(a)
}

// LoggedIn returns the names in the logged-in set, in login order.
func (n *Network) LoggedIn() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return models.AccountNames(n.loggedIn)
}

// Notifications returns a copy of name's notification log.
func (n *Network) Notifications(name string) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	a, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, len(a.Notifications))
	for i, entry := range a.Notifications {
		out[i] = *entry
	}
	return out, nil
}
