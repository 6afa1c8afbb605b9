// Package server exposes a snapshot store over HTTP and prunes it on a
// schedule.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/expvarhandler"

	"mbe-go/fixture"
	"mbe-go/mbe"
	"mbe-go/name"
	"mbe-go/store"
)

// Counters served on /stats.
var (
	requests      = expvar.NewInt("mbeRequests")
	notFound      = expvar.NewInt("mbeNotFound")
	badRequests   = expvar.NewInt("mbeBadRequests")
	prunedEntries = expvar.NewInt("mbePruned")
)

const kPruneLimit = 2000

var ErrServerClosed = errors.New("server closed")

type Server struct {
	store_    *store.Store
	interner_ *name.Interner

	/// Serializes store access; sqlite wants one writer.
	mu_ sync.Mutex

	/// Snapshots unused for this long are pruned.
	maxAge_ time.Duration

	pruning_   *abool.AtomicBool
	scheduler_ gocron.Scheduler
	http_      *fasthttp.Server

	/// Guards ln_ and stopped_.
	lnMu_    sync.Mutex
	ln_      net.Listener
	stopped_ bool
}

// SnapshotResponse is the body of GET /snapshots/{label}.
type SnapshotResponse struct {
	Label       string               `json:"label"`
	Fingerprint string               `json:"fingerprint"`
	Snapshot    mbe.Snapshot[string] `json:"snapshot"`
}

func New(s *store.Store, in *name.Interner, maxAge time.Duration) *Server {
	ret := Server{}
	ret.store_ = s
	ret.interner_ = in
	if ret.interner_ == nil {
		ret.interner_ = name.Default()
	}
	ret.maxAge_ = maxAge
	ret.pruning_ = abool.New()
	ret.http_ = &fasthttp.Server{
		Handler:      ret.Handle,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		Name:         "mbe",
	}
	return &ret
}

func (this *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	_, shapeErr := mbe.KindOf(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFound.Add(1)
		ctx.Error(err.Error(), fasthttp.StatusNotFound)
	case shapeErr, errors.Is(err, fixture.ErrSyntax), errors.Is(err, name.ErrFrozen):
		badRequests.Add(1)
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
	default:
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
	}
}

func (this *Server) reply(ctx *fasthttp.RequestCtx, v interface{}) {
	buf, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

// Handle routes a request:
//
//	GET    /snapshots[?name=N]          labels, optionally those mentioning N
//	GET    /snapshots/{label}           the snapshot
//	PUT    /snapshots/{label}           save the YAML fixture in the body
//	DELETE /snapshots/{label}           forget the snapshot
//	GET    /snapshots/{label}/march?name=N...  the marched elements
//	GET    /stats                       counters
func (this *Server) Handle(ctx *fasthttp.RequestCtx) {
	requests.Add(1)
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "stats":
		expvarhandler.ExpvarHandler(ctx)
	case len(parts) == 1 && parts[0] == "snapshots" && ctx.IsGet():
		this.handleList(ctx)
	case len(parts) == 2 && parts[0] == "snapshots" && ctx.IsGet():
		this.handleGet(ctx, parts[1])
	case len(parts) == 2 && parts[0] == "snapshots" && ctx.IsPut():
		this.handlePut(ctx, parts[1])
	case len(parts) == 2 && parts[0] == "snapshots" && ctx.IsDelete():
		this.handleDelete(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "snapshots" && parts[2] == "march" && ctx.IsGet():
		this.handleMarch(ctx, parts[1])
	default:
		notFound.Add(1)
		ctx.Error(fmt.Sprintf("no route for %s %s", ctx.Method(), ctx.Path()), fasthttp.StatusNotFound)
	}
}

func (this *Server) handleList(ctx *fasthttp.RequestCtx) {
	this.mu_.Lock()
	defer this.mu_.Unlock()
	var labels []string
	var err error
	if n := ctx.QueryArgs().Peek("name"); len(n) != 0 {
		labels, err = this.store_.FindByName(string(n))
	} else {
		labels, err = this.store_.List()
	}
	if err != nil {
		this.fail(ctx, err)
		return
	}
	if labels == nil {
		labels = []string{}
	}
	this.reply(ctx, labels)
}

func (this *Server) load(label string) (mbe.Env[string], string, error) {
	this.mu_.Lock()
	defer this.mu_.Unlock()
	e, err := this.store_.Load(label, this.interner_)
	if err != nil {
		return mbe.Env[string]{}, "", err
	}
	entry, err := this.store_.Entry(label)
	if err != nil {
		return mbe.Env[string]{}, "", err
	}
	return e, entry.Fingerprint, nil
}

func (this *Server) handleGet(ctx *fasthttp.RequestCtx, label string) {
	e, fingerprint, err := this.load(label)
	if err != nil {
		this.fail(ctx, err)
		return
	}
	this.reply(ctx, SnapshotResponse{Label: label, Fingerprint: fingerprint, Snapshot: e.Snapshot()})
}

func (this *Server) handlePut(ctx *fasthttp.RequestCtx, label string) {
	e, err := fixture.Parse(ctx.PostBody(), this.interner_)
	if err != nil {
		this.fail(ctx, err)
		return
	}
	this.mu_.Lock()
	entry, err := this.store_.Save(label, e)
	this.mu_.Unlock()
	if err != nil {
		this.fail(ctx, err)
		return
	}
	this.reply(ctx, map[string]string{"label": entry.Label, "fingerprint": entry.Fingerprint})
}

func (this *Server) handleDelete(ctx *fasthttp.RequestCtx, label string) {
	this.mu_.Lock()
	err := this.store_.Forget(label)
	this.mu_.Unlock()
	if err != nil {
		this.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (this *Server) handleMarch(ctx *fasthttp.RequestCtx, label string) {
	e, _, err := this.load(label)
	if err != nil {
		this.fail(ctx, err)
		return
	}
	var driving []name.Name
	for _, arg := range ctx.QueryArgs().PeekMulti("name") {
		n, ok := this.interner_.Lookup(string(arg))
		if !ok {
			badRequests.Add(1)
			ctx.Error(fmt.Sprintf("unknown name '%s'", arg), fasthttp.StatusBadRequest)
			return
		}
		driving = append(driving, n)
	}
	marched, err := e.MarchAll(driving...)
	if err != nil {
		this.fail(ctx, err)
		return
	}
	res := make([]mbe.Snapshot[string], 0, len(marched))
	for _, sub := range marched {
		res = append(res, sub.Snapshot())
	}
	this.reply(ctx, res)
}

// Prune forgets snapshots unused for longer than the server's max age. A
// call made while another is running does nothing.
func (this *Server) Prune() (int, error) {
	if !this.pruning_.SetToIf(false, true) {
		return 0, nil
	}
	defer this.pruning_.UnSet()
	this.mu_.Lock()
	defer this.mu_.Unlock()
	n, err := this.store_.Prune(this.maxAge_, kPruneLimit)
	if err != nil {
		return 0, err
	}
	prunedEntries.Add(int64(n))
	return n, nil
}

func (this *Server) pruneTask() {
	n, err := this.Prune()
	if err != nil {
		log.Printf("prune: %v", err)
		return
	}
	if n > 0 {
		log.Printf("pruned %d snapshots", n)
	}
}

// StartPruneSchedule runs Prune every interval until Shutdown.
func (this *Server) StartPruneSchedule(every time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := scheduler.NewJob(gocron.DurationJob(every), gocron.NewTask(this.pruneTask)); err != nil {
		return err
	}
	this.scheduler_ = scheduler
	scheduler.Start()
	return nil
}

// ListenAndServe serves requests on addr until Shutdown.
func (this *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return this.Serve(ln)
}

// Serve serves requests on ln until Shutdown, which closes ln. After
// Shutdown it closes ln at once and returns ErrServerClosed.
func (this *Server) Serve(ln net.Listener) error {
	this.lnMu_.Lock()
	if this.stopped_ {
		this.lnMu_.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	this.ln_ = ln
	this.lnMu_.Unlock()

	log.Printf("Starting HTTP server on %q", ln.Addr())
	return this.http_.Serve(ln)
}

func (this *Server) Shutdown(ctx context.Context) error {
	this.lnMu_.Lock()
	this.stopped_ = true
	ln := this.ln_
	this.lnMu_.Unlock()

	var errs []error
	if this.scheduler_ != nil {
		errs = append(errs, this.scheduler_.Shutdown())
	}
	errs = append(errs, this.http_.ShutdownWithContext(ctx))
	// fasthttp only closes listeners Serve has registered; ln may not be yet.
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
