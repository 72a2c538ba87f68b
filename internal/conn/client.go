package conn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tobsdb/tdbview/internal/mutation"
	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/pkg"
)

type ClientOptions struct {
	Username string
	Password string
	// Columns overrides the columns the server describes.
	Columns []record.Column
}

// Client is a persistence collaborator backed by one table on a remote
// server. Requests on one client are sent one at a time.
type Client struct {
	locker sync.Mutex
	conn   *websocket.Conn

	Url     *url.URL
	Table   string
	options ClientOptions

	info_locker sync.Mutex
	info        *TableInfo
}

var _ mutation.Collaborator = (*Client)(nil)

func NewClient(url_str, table string, options ClientOptions) (*Client, error) {
	Url, err := url.Parse(url_str)
	if err != nil {
		return nil, err
	}

	q := Url.Query()
	if options.Username != "" {
		q.Set("username", options.Username)
		q.Set("password", options.Password)
	}
	Url.RawQuery = q.Encode()

	return &Client{Url: Url, Table: table, options: options}, nil
}

// connect expects the lock to be held.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, res, err := websocket.DefaultDialer.DialContext(ctx, c.Url.String(), nil)
	if err != nil {
		return err
	}
	if err := res.Header.Get("tdb-error"); err != "" {
		conn.Close()
		return mutation.NewFailure(http.StatusUnauthorized, err)
	}

	pkg.InfoLog("Connected to", c.Url.Host)
	c.conn = conn
	return nil
}

func (c *Client) Connect(ctx context.Context) error {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.connect(ctx)
}

func (c *Client) Close() error {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Disconnect"))
	if err != nil {
		pkg.WarnLog(err)
	}
	err = c.conn.Close()
	c.conn = nil
	return err
}

type clientResponse struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	ReqId   string          `json:"__tdb_client_req_id__"`
}

// query sends one request and waits for its response. A non-2xx status
// comes back as a *mutation.Failure carrying the server's message.
func (c *Client) query(ctx context.Context, action RequestAction, data, where record.Fields) (clientResponse, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if err := c.connect(ctx); err != nil {
		return clientResponse{}, err
	}
	// the zero deadline clears one left behind by an earlier request
	deadline, _ := ctx.Deadline()
	c.conn.SetReadDeadline(deadline)
	c.conn.SetWriteDeadline(deadline)

	req := WsRequest{Action: action, Table: c.Table, Data: data, Where: where, ReqId: uuid.NewString()}
	if err := c.conn.WriteJSON(req); err != nil {
		c.drop()
		return clientResponse{}, err
	}

	var res clientResponse
	if err := c.conn.ReadJSON(&res); err != nil {
		c.drop()
		return res, err
	}
	if res.ReqId != req.ReqId {
		c.drop()
		return res, fmt.Errorf("response id %q does not match request id %q", res.ReqId, req.ReqId)
	}
	if res.Status < 200 || res.Status >= 300 {
		return res, mutation.NewFailure(res.Status, res.Message)
	}
	return res, nil
}

// drop forgets a broken connection so the next query dials again.
func (c *Client) drop() {
	c.conn.Close()
	c.conn = nil
}

func (c *Client) describe(ctx context.Context) (*TableInfo, error) {
	c.info_locker.Lock()
	defer c.info_locker.Unlock()

	if c.info != nil {
		return c.info, nil
	}
	res, err := c.query(ctx, RequestActionDescribe, nil, nil)
	if err != nil {
		return nil, err
	}
	info := TableInfo{}
	if err := json.Unmarshal(res.Data, &info); err != nil {
		return nil, err
	}
	if len(c.options.Columns) > 0 {
		info.Columns = c.options.Columns
	}
	c.info = &info
	return c.info, nil
}

func (c *Client) Apply(ctx context.Context, req mutation.Request) (mutation.Ack, error) {
	info, err := c.describe(ctx)
	if err != nil {
		return mutation.Ack{}, err
	}

	var res clientResponse
	switch req.Kind {
	case mutation.KindCreate:
		res, err = c.query(ctx, RequestActionCreate, req.Fields, nil)
	case mutation.KindUpdate:
		ids := make([]any, len(req.Targets))
		for i, id := range req.Targets {
			ids[i] = id.String()
		}
		res, err = c.query(ctx, RequestActionUpdateMany, req.Fields, record.Fields{info.IDField: ids})
	case mutation.KindDelete:
		res, err = c.query(ctx, RequestActionDelete, nil, record.Fields{info.IDField: req.Target.String()})
	default:
		return mutation.Ack{}, fmt.Errorf("unknown mutation kind %q", req.Kind)
	}
	if err != nil {
		return mutation.Ack{}, err
	}

	var data any
	json.Unmarshal(res.Data, &data)
	return mutation.Ack{Message: req.SuccessMessage(), Data: data}, nil
}

func (c *Client) Fetch(ctx context.Context) (*record.RecordSet, error) {
	info, err := c.describe(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.query(ctx, RequestActionFindMany, nil, nil)
	if err != nil {
		return nil, err
	}
	records := []record.Record{}
	if err := json.Unmarshal(res.Data, &records); err != nil {
		return nil, err
	}
	return record.NewRecordSet(info.IDField, records, info.Columns), nil
}
