// Package web is a small application framework on top of gin. Handlers return
// errors and the framework turns them into JSON responses.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler is the signature of every application handler.
type Handler func(c *Context) error

// Middleware wraps a Handler to run code before or after it.
type Middleware func(Handler) Handler

// App is the entrypoint into the application and embeds the gin engine so
// raw gin routes (static files, health checks) can still be registered.
type App struct {
	*gin.Engine
	log *log.Logger
	mw  []Middleware
}

// NewApp creates an App with the given application wide middleware.
func NewApp(log *log.Logger, mw ...Middleware) *App {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	return &App{
		Engine: engine,
		log:    log,
		mw:     mw,
	}
}

// Handle attaches a handler to the method and path. Route level middleware
// runs inside the application level middleware.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := &Context{
			Context: gc,
			Ctx:     gc.Request.Context(),
			log:     a.log,
		}

		if err := handler(c); err != nil {
			a.log.Printf("%s %s : unhandled error : %v", method, path, err)
		}
	})
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPut, path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, handler, mw...)
}

// Serve runs the http server until ctx is cancelled, then gives in-flight
// requests up to timeout to finish.
func (a *App) Serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	srv.Handler = a.Engine

	errCh := make(chan error, 1)
	go func() {
		a.log.Printf("api listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		a.log.Println("shutdown started")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			srv.Close()
			return err
		}
		return nil
	}
}

func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}
