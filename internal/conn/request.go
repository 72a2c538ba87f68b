package conn

import (
	"encoding/json"
	"net/http"

	"github.com/tobsdb/tdbview/internal/record"
)

type RequestAction string

const (
	RequestActionCreate     RequestAction = "create"
	RequestActionFindMany   RequestAction = "findMany"
	RequestActionDelete     RequestAction = "deleteUnique"
	RequestActionUpdateMany RequestAction = "updateMany"
	RequestActionDescribe   RequestAction = "describeTable"
)

func (action RequestAction) IsReadOnly() bool {
	return action == RequestActionFindMany || action == RequestActionDescribe
}

type WsRequest struct {
	Action RequestAction `json:"action"`
	Table  string        `json:"table"`
	Data   record.Fields `json:"data,omitempty"`
	Where  record.Fields `json:"where,omitempty"`
	ReqId  string        `json:"__tdb_client_req_id__"` // used in tdb clients
}

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId string `json:"__tdb_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

func (r Response) Marshal() []byte {
	buf, err := json.Marshal(r)
	if err != nil {
		buf, _ = json.Marshal(NewErrorResponse(http.StatusInternalServerError, err.Error()))
	}
	return buf
}

// TableInfo describes a table to clients that need its columns.
type TableInfo struct {
	Name    string          `json:"name"`
	IDField string          `json:"id_field"`
	Columns []record.Column `json:"columns"`
}
