package conn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tobsdb/tdbview/internal/auth"
	"github.com/tobsdb/tdbview/internal/store"
	"github.com/tobsdb/tdbview/pkg"
)

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type serverMetrics struct {
	requests    *prometheus.CounterVec
	connections prometheus.Gauge
}

func newServerMetrics(reg *prometheus.Registry) *serverMetrics {
	return &serverMetrics{
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "tdbview_requests_total",
			Help: "Requests handled, by action and response status.",
		}, []string{"action", "status"}),
		connections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "tdbview_connections",
			Help: "Open websocket connections.",
		}),
	}
}

// Server exposes tables over websocket connections.
type Server struct {
	locker sync.RWMutex
	tables pkg.Map[string, *store.Table]
	users  auth.Users

	registry *prometheus.Registry
	metrics  *serverMetrics
}

// NewServer serves tables to users. With no users every connection gets
// read-write access.
func NewServer(users auth.Users, tables ...*store.Table) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		tables:   pkg.Map[string, *store.Table]{},
		users:    users,
		registry: reg,
		metrics:  newServerMetrics(reg),
	}
	for _, t := range tables {
		s.tables.Set(t.Name, t)
	}
	return s
}

func (s *Server) GetLocker() *sync.RWMutex { return &s.locker }

func (s *Server) Table(name string) *store.Table {
	return pkg.RLockValue(s, func() *store.Table { return s.tables.Get(name) })
}

func (s *Server) Registry() *prometheus.Registry { return s.registry }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.HandleConnection)
	return mux
}

// Listen serves on addr until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		pkg.InfoLog("tdbview listening on", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	pkg.DebugLog("Shutting down...")
	shutdown_ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown_ctx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authenticate(r *http.Request) (*auth.User, error) {
	if len(s.users) == 0 {
		return &auth.User{Name: "anonymous", Role: auth.UserRoleReadWrite}, nil
	}
	q := r.URL.Query()
	return s.users.Authenticate(q.Get("username"), q.Get("password"))
}

func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		ConnError(w, r, err.Error())
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	defer conn.Close()

	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()
	pkg.InfoLog("New connection from", r.RemoteAddr, "as", user.Name)
	defer pkg.InfoLog("Connection closed from", r.RemoteAddr)

	for {
		_, buf, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		var req WsRequest
		var res Response
		if err := json.Unmarshal(buf, &req); err != nil {
			pkg.ErrorLog("parsing request", err)
			res = NewErrorResponse(http.StatusBadRequest, err.Error())
		} else {
			res = s.ActionHandler(user, req)
		}
		res.ReqId = req.ReqId
		s.metrics.requests.WithLabelValues(string(req.Action), strconv.Itoa(res.Status)).Inc()

		if err := conn.WriteMessage(websocket.TextMessage, res.Marshal()); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}

func (s *Server) ActionHandler(user *auth.User, req WsRequest) Response {
	required := auth.UserRoleReadWrite
	if req.Action.IsReadOnly() {
		required = auth.UserRoleReadOnly
	}
	if !user.HasClearance(required) {
		return NewErrorResponse(http.StatusForbidden, auth.InsufficientPermissions.Error())
	}

	table := s.Table(req.Table)
	if table == nil {
		return NewErrorResponse(http.StatusNotFound, "Table not found")
	}

	switch req.Action {
	case RequestActionCreate:
		return CreateReqHandler(table, req)
	case RequestActionUpdateMany:
		return UpdateManyReqHandler(table, req)
	case RequestActionDelete:
		return DeleteReqHandler(table, req)
	case RequestActionFindMany:
		return FindManyReqHandler(table, req)
	case RequestActionDescribe:
		return DescribeReqHandler(table)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", req.Action))
	}
}

func ConnError(w http.ResponseWriter, r *http.Request, conn_error string) {
	pkg.InfoLog("connection error:", conn_error)
	headers := http.Header{}
	headers.Set("tdb-error", conn_error)
	conn, err := Upgrader.Upgrade(w, r, headers)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, conn_error))
	conn.Close()
}
