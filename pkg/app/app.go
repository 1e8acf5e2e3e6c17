// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app boots a riptide application: it owns the screen, the widget
// library, the reconciler, and the event broker, and serializes every
// reconciliation pass, key dispatch, and paint on one loop goroutine.
// Callers describe the UI with a render function; everything else
// (debounced redraws, focus, config reload, the optional devtools server,
// shutdown) is wired here.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wavetermdev/riptide/pkg/engine"
	"github.com/wavetermdev/riptide/pkg/layoutstore"
	"github.com/wavetermdev/riptide/pkg/panichandler"
	"github.com/wavetermdev/riptide/pkg/rps"
	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/rtconfig"
	"github.com/wavetermdev/riptide/pkg/rtjwt"
	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/utilds"
	"github.com/wavetermdev/riptide/pkg/vdom"
	"github.com/wavetermdev/riptide/pkg/web"
	"golang.org/x/sync/errgroup"
)

const appSender = "app"
const shutdownGraceTimeout = 2 * time.Second

type AppOpts struct {
	// Devtools starts the web server (host/port come from settings).
	Devtools bool
	// OpenDevtools launches the browser with a fresh stream token.
	OpenDevtools bool
}

// TreeUpdate is the payload of tree-updated events.
type TreeUpdate struct {
	RootId string `json:"rootid"`
}

type App struct {
	screen *twidget.Screen
	lib    *twidget.Library
	recon  *engine.Reconciler
	broker *rps.Broker
	opts   AppOpts
	input  io.Reader

	loop *utilds.WorkQueue[func()]

	// loop-goroutine state; nothing below is touched off the loop while
	// the loop is running
	renderFn func() *vdom.Elem
	settings rtconfig.FullSettingsType

	startTime    time.Time
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// MakeApp takes over the controlling terminal (raw mode, alternate
// screen). The terminal is restored when Run returns.
func MakeApp(opts AppOpts) (*App, error) {
	screen, err := twidget.MakeScreen(os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("error creating screen: %w", err)
	}
	return makeAppWithScreen(screen, os.Stdin, opts), nil
}

// MakeTestApp builds an app on a headless fixed-size screen. Run is not
// used in tests; drive the loop with Render/Refresh and WaitIdle.
func MakeTestApp(width int, height int) *App {
	return makeAppWithScreen(twidget.MakeTestScreen(width, height), nil, AppOpts{})
}

func makeAppWithScreen(screen *twidget.Screen, input io.Reader, opts AppOpts) *App {
	app := &App{
		screen:     screen,
		lib:        twidget.MakeLibrary(screen),
		broker:     rps.MakeBroker(),
		opts:       opts,
		input:      input,
		startTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
	app.recon = engine.MakeReconciler(app.lib, screen.RootSurface())
	app.recon.Coordinator().SetNotifier(app)
	app.loop = utilds.NewWorkQueue(runLoopItem)
	// the debounce notifier fires on its own goroutine; re-posting the
	// flush onto the loop keeps painting serialized with tree mutation
	screen.SetRedrawHandler(func() {
		app.post(screen.Flush)
	})
	return app
}

func runLoopItem(fn func()) {
	defer func() {
		panichandler.PanicHandler("app:loop", recover())
	}()
	fn()
}

func (app *App) post(fn func()) bool {
	return app.loop.Enqueue(fn)
}

func (app *App) Broker() *rps.Broker {
	return app.broker
}

func (app *App) Screen() *twidget.Screen {
	return app.screen
}

// Render installs fn as the view function and renders immediately. fn runs
// on the loop goroutine; it may close over mutable view state as long as
// that state is only touched from event handlers (which also run on the
// loop).
func (app *App) Render(fn func() *vdom.Elem) {
	app.post(func() {
		app.renderFn = fn
		app.doRender()
	})
}

// SetRoot renders a static element tree.
func (app *App) SetRoot(elem *vdom.Elem) {
	app.Render(func() *vdom.Elem {
		return elem
	})
}

// Refresh re-runs the render function and reconciles the result. Call it
// after mutating view state outside an event handler.
func (app *App) Refresh() {
	app.post(app.doRender)
}

func (app *App) doRender() {
	if app.renderFn == nil {
		return
	}
	elem := app.renderFn()
	if elem == nil {
		if err := app.recon.UnmountTree(); err != nil {
			log.Printf("[app] error unmounting tree: %v\n", err)
		}
		return
	}
	rootId, err := app.recon.RenderTree(*elem)
	if err != nil {
		log.Printf("[app] render error: %v\n", err)
	}
	app.broker.Publish(rps.Event{Event: rps.Event_TreeUpdated, Sender: appSender, Data: TreeUpdate{RootId: rootId}})
}

// PassCommitted implements engine.Notifier; pass summaries flow to
// devtools subscribers through the broker.
func (app *App) PassCommitted(summary engine.PassSummary) {
	app.broker.Publish(rps.Event{Event: rps.Event_PassCommitted, Sender: appSender, Data: summary})
}

func (app *App) applyRenderSettings() {
	settings := app.settings.Settings
	app.screen.SetRedrawTiming(
		time.Duration(settings.RenderMinDebounceMs*float64(time.Millisecond)),
		time.Duration(settings.RenderMaxDebounceMs*float64(time.Millisecond)),
	)
}

func normalizeKeyName(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "+", "-"))
}

func (app *App) handleKey(key string) {
	quitKey := app.settings.Settings.AppQuitKey
	if quitKey != "" && normalizeKeyName(key) == normalizeKeyName(quitKey) {
		app.Shutdown(fmt.Sprintf("quit key %q", key))
		return
	}
	if key == "Tab" {
		app.screen.FocusNext()
		return
	}
	app.screen.DispatchKey(key)
}

// DispatchKey feeds one decoded key through the app loop, same path as
// live terminal input.
func (app *App) DispatchKey(key string) {
	app.post(func() {
		app.handleKey(key)
	})
}

// TreeSnapshot reads the current element tree through the loop, so the
// snapshot never observes a half-applied pass.
func (app *App) TreeSnapshot(ctx context.Context) (*vdom.Elem, error) {
	rtnCh := make(chan *vdom.Elem, 1)
	ok := app.post(func() {
		rtnCh <- app.recon.CurrentElem()
	})
	if !ok {
		return nil, fmt.Errorf("app loop is closed")
	}
	select {
	case elem := <-rtnCh:
		return elem, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (app *App) RegistryEntries() []engine.RegistryEntry {
	return app.recon.Registry().Entries()
}

func (app *App) Status() web.StatusType {
	return web.StatusType{
		Version:    rtbase.RiptideVersion,
		BuildTime:  rtbase.BuildTime,
		UptimeMs:   time.Since(app.startTime).Milliseconds(),
		NodeCount:  app.recon.Registry().Len(),
		PanicCount: panichandler.PanicCount(),
	}
}

// WaitIdle blocks until every item queued on the loop so far has run.
// Test helper; production code never needs a barrier.
func (app *App) WaitIdle() {
	doneCh := make(chan struct{})
	if !app.post(func() { close(doneCh) }) {
		return
	}
	<-doneCh
}

// Shutdown requests a graceful stop. Safe from any goroutine; the first
// reason wins.
func (app *App) Shutdown(reason string) {
	app.shutdownOnce.Do(func() {
		log.Printf("[app] shutting down: %s\n", reason)
		app.broker.Publish(rps.Event{Event: rps.Event_AppShutdown, Sender: appSender, Data: reason})
		close(app.shutdownCh)
	})
}

// Run starts the supervised loops (input reader, resize watcher, signal
// watcher, optional devtools server) and blocks until Shutdown. It owns
// the cleanup: the loop drains, the layout autosaves, the terminal
// restores, the broker closes.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	watcher := rtconfig.GetWatcher()
	if watcher != nil {
		watcher.SetBroker(app.broker)
		watcher.OnChange(func(fullSettings rtconfig.FullSettingsType) {
			app.post(func() {
				app.settings = fullSettings
				app.applyRenderSettings()
				app.doRender()
			})
		})
		watcher.Start()
		defer watcher.Close()
		app.settings = watcher.GetFullSettings()
	} else {
		app.settings = rtconfig.ReadFullSettings()
	}
	app.applyRenderSettings()
	settings := app.settings.Settings

	if settings.LayoutAutosave {
		if err := layoutstore.InitLayoutstore(); err != nil {
			log.Printf("[app] error initializing layout store, autosave disabled: %v\n", err)
			app.settings.Settings.LayoutAutosave = false
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.watchSignals(gctx)
	})
	group.Go(func() error {
		return app.watchResize(gctx)
	})
	if app.input != nil {
		group.Go(func() error {
			err := twidget.ReadKeyEvents(gctx, app.input, func(key string) {
				app.post(func() {
					app.handleKey(key)
				})
			})
			app.Shutdown(fmt.Sprintf("input closed (%v)", err))
			return nil
		})
	}
	if app.opts.Devtools {
		if err := app.startDevtools(gctx, group, settings); err != nil {
			log.Printf("[app] error starting devtools server: %v\n", err)
		}
	}

	app.Refresh()

	select {
	case <-app.shutdownCh:
	case <-gctx.Done():
		app.Shutdown("supervised loop exited")
	}
	cancelFn()

	// drain queued work before touching the terminal so no flush lands on
	// a restored screen
	app.loop.Close(false)
	app.loop.Wait()
	app.autosaveLayout()
	app.screen.Close()
	app.broker.Close()
	layoutstore.CloseLayoutstore()
	// the input reader can stay blocked on a raw tty read; it unblocks at
	// process exit, so Run does not wait on the group
	return nil
}

func (app *App) startDevtools(ctx context.Context, group *errgroup.Group, settings rtconfig.SettingsType) error {
	host := settings.DevtoolsHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := settings.DevtoolsPort
	if port == 0 {
		port = 9371
	}
	listener, err := web.MakeTCPListener(host, port)
	if err != nil {
		return err
	}
	group.Go(func() error {
		return web.RunWebServer(ctx, listener, web.ServerDeps{App: app, Broker: app.broker})
	})
	if app.opts.OpenDevtools || settings.DevtoolsOpen {
		if err := rtjwt.InitKeys(); err != nil {
			return err
		}
		baseUrl := fmt.Sprintf("http://%s/", listener.Addr())
		if err := web.OpenInBrowser(baseUrl); err != nil {
			log.Printf("[app] error opening browser: %v\n", err)
		}
	}
	return nil
}

func (app *App) autosaveLayout() {
	settings := app.settings.Settings
	if !settings.LayoutAutosave {
		return
	}
	name := settings.LayoutAutosaveName
	if name == "" {
		name = "autosave"
	}
	elem := app.recon.CurrentElem()
	if elem == nil {
		return
	}
	ctx, cancelFn := context.WithTimeout(context.Background(), shutdownGraceTimeout)
	defer cancelFn()
	meta, err := layoutstore.SaveSnapshot(ctx, name, elem)
	if err != nil {
		log.Printf("[app] error autosaving layout: %v\n", err)
		return
	}
	log.Printf("[app] autosaved layout %q v%d\n", meta.Name, meta.Version)
}
