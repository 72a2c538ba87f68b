package conn

import (
	"fmt"
	"net/http"

	"github.com/tobsdb/tdbview/internal/record"
	"github.com/tobsdb/tdbview/internal/store"
)

func storeErrorResponse(err error) Response {
	if store_error, ok := err.(*store.Error); ok {
		return NewErrorResponse(store_error.Status(), store_error.Error())
	}
	return NewErrorResponse(http.StatusBadRequest, err.Error())
}

// whereIDs reads the id constraint of where as one id or a list of ids.
func whereIDs(table *store.Table, where record.Fields) []record.ID {
	v, ok := where[table.IDField]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		if record.Falsy(v) {
			return nil
		}
		return []record.ID{record.ID(record.Stringify(v))}
	}
	ids := make([]record.ID, 0, len(list))
	for _, item := range list {
		if record.Falsy(item) {
			continue
		}
		ids = append(ids, record.ID(record.Stringify(item)))
	}
	return ids
}

func CreateReqHandler(table *store.Table, req WsRequest) Response {
	res, err := table.Create(req.Data)
	if err != nil {
		return storeErrorResponse(err)
	}
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created new row in table %s", table.Name), res)
}

func UpdateManyReqHandler(table *store.Table, req WsRequest) Response {
	ids := whereIDs(table, req.Where)
	if len(ids) == 0 {
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("Where constraints must include %s", table.IDField))
	}
	res, err := table.Update(ids, req.Data)
	if err != nil {
		return storeErrorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Updated %d rows in table %s", len(res), table.Name), res)
}

func DeleteReqHandler(table *store.Table, req WsRequest) Response {
	ids := whereIDs(table, req.Where)
	if len(ids) != 1 {
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("Where constraints must include exactly one %s", table.IDField))
	}
	res, err := table.Delete(ids[0])
	if err != nil {
		return storeErrorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Deleted row with %s = %s in table %s", table.IDField, ids[0], table.Name), res)
}

func FindManyReqHandler(table *store.Table, req WsRequest) Response {
	res := table.FindMany(req.Where)
	return NewResponse(http.StatusOK, fmt.Sprintf("Found %d rows in table %s", len(res), table.Name), res)
}

func DescribeReqHandler(table *store.Table) Response {
	return NewResponse(http.StatusOK, fmt.Sprintf("Table %s", table.Name),
		TableInfo{Name: table.Name, IDField: table.IDField, Columns: table.Columns})
}
