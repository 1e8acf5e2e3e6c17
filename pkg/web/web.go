// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the devtools HTTP surface: a small JSON API over
// the live widget tree plus websocket and SSE event streams. REST
// endpoints require the process auth key; the streams take a short
// lived token minted at /api/v1/token.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/skratchdot/open-golang/open"
	"github.com/wavetermdev/riptide/pkg/authkey"
	"github.com/wavetermdev/riptide/pkg/engine"
	"github.com/wavetermdev/riptide/pkg/layoutstore"
	"github.com/wavetermdev/riptide/pkg/rps"
	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/rtjwt"
	"github.com/wavetermdev/riptide/pkg/schema"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

type WebFnType = func(http.ResponseWriter, *http.Request)

const (
	CacheControlHeaderKey     = "Cache-Control"
	CacheControlHeaderNoCache = "no-cache"

	ContentTypeHeaderKey = "Content-Type"
	ContentTypeJson      = "application/json"

	ContentLengthHeaderKey = "Content-Length"
)

const HttpReadTimeout = 5 * time.Second
const HttpMaxHeaderBytes = 60000
const HttpTimeoutDuration = 21 * time.Second

const TokenScopeDevtools = "devtools"
const TokenQueryParam = "token"
const webSender = "web"

type WebFnOpts struct {
	AllowCaching bool
	JsonErrors   bool
	NoAuth       bool
}

type StatusType struct {
	Version    string `json:"version"`
	BuildTime  string `json:"buildtime"`
	UptimeMs   int64  `json:"uptimems"`
	NodeCount  int    `json:"nodecount"`
	PanicCount int64  `json:"paniccount"`
}

// AppApi is the slice of the app the devtools server needs. Tree reads
// go through the app's render loop; registry reads are lock-protected.
type AppApi interface {
	TreeSnapshot(ctx context.Context) (*vdom.Elem, error)
	RegistryEntries() []engine.RegistryEntry
	Status() StatusType
}

type ServerDeps struct {
	App    AppApi
	Broker *rps.Broker
}

func marshalReturnValue(data any, err error) []byte {
	var mapRtn = make(map[string]any)
	if err != nil {
		mapRtn["error"] = err.Error()
	} else {
		mapRtn["success"] = true
		mapRtn["data"] = data
	}
	rtn, err := json.Marshal(mapRtn)
	if err != nil {
		return marshalReturnValue(nil, fmt.Errorf("error serializing response: %v", err))
	}
	return rtn
}

func writeJsonReturn(w http.ResponseWriter, data any, err error) {
	jsonRtn := marshalReturnValue(data, err)
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	w.Header().Set(ContentLengthHeaderKey, fmt.Sprintf("%d", len(jsonRtn)))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	w.Write(jsonRtn)
}

func WebFnWrap(opts WebFnOpts, fn WebFnType) WebFnType {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recErr := recover()
			if recErr == nil {
				return
			}
			panicStr := fmt.Sprintf("panic: %v", recErr)
			log.Printf("[web] panic: %v\n", recErr)
			debug.PrintStack()
			if opts.JsonErrors {
				jsonRtn := marshalReturnValue(nil, fmt.Errorf("%s", panicStr))
				w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
				w.Header().Set(ContentLengthHeaderKey, fmt.Sprintf("%d", len(jsonRtn)))
				w.WriteHeader(http.StatusOK)
				w.Write(jsonRtn)
			} else {
				http.Error(w, panicStr, http.StatusInternalServerError)
			}
		}()
		if !opts.AllowCaching {
			w.Header().Set(CacheControlHeaderKey, CacheControlHeaderNoCache)
		}
		if !opts.NoAuth {
			err := authkey.ValidateIncomingRequest(r)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte("Unauthorized"))
				return
			}
		}
		fn(w, r)
	}
}

// validateStreamToken guards the ws/SSE endpoints, which cannot carry
// the auth header from a browser EventSource/WebSocket constructor.
func validateStreamToken(r *http.Request) (*rtjwt.RtJwtClaims, error) {
	tokenStr := r.URL.Query().Get(TokenQueryParam)
	if tokenStr == "" {
		return nil, fmt.Errorf("no token query parameter")
	}
	claims, err := rtjwt.ValidateAndExtract(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Scope != TokenScopeDevtools {
		return nil, fmt.Errorf("invalid token scope %q", claims.Scope)
	}
	return claims, nil
}

type webServer struct {
	deps ServerDeps
	sse  *sseBridge
}

func (ws *webServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJsonReturn(w, ws.deps.App.Status(), nil)
}

func (ws *webServer) handleTree(w http.ResponseWriter, r *http.Request) {
	elem, err := ws.deps.App.TreeSnapshot(r.Context())
	if err != nil {
		writeJsonReturn(w, nil, err)
		return
	}
	writeJsonReturn(w, map[string]any{"tree": elem}, nil)
}

func (ws *webServer) handleRegistry(w http.ResponseWriter, r *http.Request) {
	entries := ws.deps.App.RegistryEntries()
	writeJsonReturn(w, map[string]any{"entries": entries}, nil)
}

func (ws *webServer) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	metas, err := layoutstore.ListSnapshots(r.Context())
	if err != nil {
		writeJsonReturn(w, nil, err)
		return
	}
	writeJsonReturn(w, map[string]any{"snapshots": metas}, nil)
}

func (ws *webServer) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	elem, err := ws.deps.App.TreeSnapshot(r.Context())
	if err != nil {
		writeJsonReturn(w, nil, err)
		return
	}
	if elem == nil {
		writeJsonReturn(w, nil, fmt.Errorf("no tree mounted"))
		return
	}
	meta, err := layoutstore.SaveSnapshot(r.Context(), name, elem)
	if err != nil {
		writeJsonReturn(w, nil, err)
		return
	}
	ws.deps.Broker.Publish(rps.Event{Event: rps.Event_SnapshotSaved, Sender: webSender, Data: meta})
	writeJsonReturn(w, meta, nil)
}

func (ws *webServer) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := layoutstore.DeleteSnapshot(r.Context(), name)
	if err == nil {
		ws.deps.Broker.Publish(rps.Event{Event: rps.Event_SnapshotDeleted, Sender: webSender, Data: name})
	}
	writeJsonReturn(w, map[string]any{"deleted": name}, err)
}

func (ws *webServer) handleToken(w http.ResponseWriter, r *http.Request) {
	token, clientId, err := rtjwt.MakeClientToken(TokenScopeDevtools, rtjwt.DefaultTokenLife)
	if err != nil {
		writeJsonReturn(w, nil, err)
		return
	}
	writeJsonReturn(w, map[string]any{"token": token, "clientid": clientId}, nil)
}

// MakeTCPListener binds the devtools address (loopback unless the
// settings say otherwise).
func MakeTCPListener(host string, port int) (net.Listener, error) {
	serverAddr := fmt.Sprintf("%s:%d", host, port)
	rtn, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("error creating listener at %v: %v", serverAddr, err)
	}
	log.Printf("[web] server listening on %s\n", rtn.Addr())
	return rtn, nil
}

// RunWebServer serves until the listener closes or ctx is canceled.
func RunWebServer(ctx context.Context, listener net.Listener, deps ServerDeps) error {
	if err := rtjwt.InitKeys(); err != nil {
		return fmt.Errorf("error initializing token keys: %w", err)
	}
	srv := &webServer{deps: deps}
	srv.sse = makeSSEBridge(deps.Broker)
	defer srv.sse.close()

	gr := mux.NewRouter()
	gr.Handle("/api/v1/status", withApiTimeout(WebFnWrap(WebFnOpts{}, srv.handleStatus)))
	gr.Handle("/api/v1/tree", withApiTimeout(WebFnWrap(WebFnOpts{}, srv.handleTree)))
	gr.Handle("/api/v1/registry", withApiTimeout(WebFnWrap(WebFnOpts{}, srv.handleRegistry)))
	gr.Handle("/api/v1/snapshots", withApiTimeout(WebFnWrap(WebFnOpts{JsonErrors: true}, srv.handleListSnapshots))).Methods(http.MethodGet)
	gr.Handle("/api/v1/snapshots/{name}", withApiTimeout(WebFnWrap(WebFnOpts{JsonErrors: true}, srv.handleSaveSnapshot))).Methods(http.MethodPost)
	gr.Handle("/api/v1/snapshots/{name}", withApiTimeout(WebFnWrap(WebFnOpts{JsonErrors: true}, srv.handleDeleteSnapshot))).Methods(http.MethodDelete)
	gr.Handle("/api/v1/token", withApiTimeout(WebFnWrap(WebFnOpts{}, srv.handleToken)))
	gr.HandleFunc("/schema/settings.json", WebFnWrap(WebFnOpts{AllowCaching: true, NoAuth: true}, schema.GetSettingsSchemaHandler().ServeHTTP))
	// stream endpoints manage their own deadlines
	gr.HandleFunc("/ws", srv.handleWs)
	gr.HandleFunc("/events", srv.handleEvents)

	var corsOpts []handlers.CORSOption
	if rtbase.IsDevMode() {
		corsOpts = append(corsOpts, handlers.AllowedOrigins([]string{"*"}))
	}
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        handlers.CORS(corsOpts...)(gr),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelFn()
		server.Shutdown(shutdownCtx)
	}()
	err := server.Serve(listener)
	if err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		return fmt.Errorf("devtools server error: %w", err)
	}
	return nil
}

func withApiTimeout(fn WebFnType) http.Handler {
	return http.TimeoutHandler(http.HandlerFunc(fn), HttpTimeoutDuration, "Timeout")
}

// OpenInBrowser launches the devtools UI with a fresh stream token.
func OpenInBrowser(baseUrl string) error {
	token, _, err := rtjwt.MakeClientToken(TokenScopeDevtools, rtjwt.DefaultTokenLife)
	if err != nil {
		return err
	}
	return open.Run(fmt.Sprintf("%s?%s=%s", baseUrl, TokenQueryParam, token))
}
