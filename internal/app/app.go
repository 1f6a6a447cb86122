package app

import (
	"context"
	"log"

	"classroll/internal/apiclient"
	"classroll/internal/browser"
	"classroll/internal/model"
	"classroll/internal/session"
	"classroll/internal/sheet"
)

// View is the screen the client shows.
type View int

const (
	ViewLogin View = iota
	ViewClasses
	ViewSheet
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewClasses:
		return "classes"
	case ViewSheet:
		return "sheet"
	}
	return "unknown"
}

// Router switches between login, class list and attendance sheet. The view
// is derived from session presence and the selected class only.
type Router struct {
	Session *session.Store
	API     *apiclient.Client
	Classes *browser.Browser

	logger *log.Logger
	sheet  *sheet.Sheet
}

// New wires the client components around one session store.
func New(baseURL string, kv session.KV, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	api := apiclient.New(baseURL, nil)
	store := session.NewStore(kv, api)
	api.Tokens = store
	return &Router{
		Session: store,
		API:     api,
		Classes: browser.New(api, logger),
		logger:  logger,
	}
}

func (r *Router) View() View {
	switch {
	case !r.Session.Authenticated():
		return ViewLogin
	case r.sheet == nil:
		return ViewClasses
	default:
		return ViewSheet
	}
}

// Restore picks up a persisted session, if any.
func (r *Router) Restore(ctx context.Context) error {
	return r.Session.Restore(ctx)
}

func (r *Router) Login(ctx context.Context, username, password string) (model.Teacher, error) {
	r.sheet = nil
	return r.Session.Login(ctx, username, password)
}

// SelectClass opens the attendance sheet for class and loads today's
// morning session.
func (r *Router) SelectClass(ctx context.Context, class model.SchoolClass) *sheet.Sheet {
	r.sheet = sheet.New(r.API, class, r.logger)
	r.sheet.Load(ctx)
	return r.sheet
}

// Sheet returns the open sheet, or nil on the other views.
func (r *Router) Sheet() *sheet.Sheet {
	if !r.Session.Authenticated() {
		return nil
	}
	return r.sheet
}

// Back returns to the class list.
func (r *Router) Back() {
	r.sheet = nil
}

// Logout clears the persisted session and the selection, from any view.
func (r *Router) Logout(ctx context.Context) error {
	r.sheet = nil
	return r.Session.Logout(ctx)
}
