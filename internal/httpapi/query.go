package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"DirectoryServer/internal/domain"
)

type queryRequest struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

type queryResponse struct {
	Data map[string]any `json:"data"`
}

type operation func(ctx context.Context, sess *domain.Session, vars json.RawMessage) (any, error)

func (a *api) registerOperations() {
	a.ops = make(map[string]operation)
	if a.directorySvc != nil {
		a.ops["personCount"] = a.opPersonCount
		a.ops["allPersons"] = a.opAllPersons
		a.ops["findPerson"] = a.opFindPerson
		a.ops["findPersonById"] = a.opFindPersonByID
		a.ops["addPerson"] = a.opAddPerson
		a.ops["editPhone"] = a.opEditPhone
	}
	if a.usersSvc != nil {
		a.ops["me"] = a.opMe
		a.ops["createUser"] = a.opCreateUser
	}
	if a.authSvc != nil {
		a.ops["login"] = a.opLogin
	}
	if a.friendsSvc != nil {
		a.ops["addAsFriend"] = a.opAddAsFriend
	}
}

func (a *api) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	op, ok := a.ops[req.Operation]
	if !ok {
		WriteError(w, http.StatusBadRequest, "unknown_operation", "unknown operation")
		return
	}

	start := time.Now()
	setOperation(r.Context(), req.Operation)
	result, err := op(r.Context(), CurrentSession(r.Context()), req.Variables)
	if err != nil {
		var status int
		switch {
		case errors.Is(err, errBadVariables):
			status = http.StatusBadRequest
			WriteError(w, status, "bad_json", "invalid variables")
		default:
			status = WriteDomainError(w, err)
		}
		if status == http.StatusInternalServerError {
			a.logger.Error("operation failed", "operation", req.Operation, "err", err)
		}
		a.metrics.ObserveOperation(req.Operation, status, time.Since(start))
		return
	}

	a.metrics.ObserveOperation(req.Operation, http.StatusOK, time.Since(start))
	WriteJSON(w, http.StatusOK, queryResponse{Data: map[string]any{req.Operation: result}})
}

func (a *api) opPersonCount(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	if err := decodeVariables(vars, &struct{}{}); err != nil {
		return nil, err
	}
	return a.directorySvc.PersonCount(ctx)
}

func (a *api) opAllPersons(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		Phone *string `json:"phone"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	phone := ""
	if v.Phone != nil {
		phone = *v.Phone
	}
	persons, err := a.directorySvc.AllPersons(ctx, phone)
	if err != nil {
		return nil, err
	}
	return newPersonsResponse(persons), nil
}

func (a *api) opFindPerson(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		Name string `json:"name"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	p, err := a.directorySvc.FindPerson(ctx, v.Name)
	if err != nil {
		return nil, err
	}
	return optionalPersonResponse(p), nil
}

func (a *api) opFindPersonByID(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		ID string `json:"id"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	p, err := a.directorySvc.FindPersonByID(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return optionalPersonResponse(p), nil
}

func (a *api) opMe(_ context.Context, sess *domain.Session, vars json.RawMessage) (any, error) {
	if err := decodeVariables(vars, &struct{}{}); err != nil {
		return nil, err
	}
	u := a.usersSvc.Me(sess)
	if u == nil {
		return nil, nil
	}
	return newUserResponse(*u), nil
}

func (a *api) opAddPerson(ctx context.Context, sess *domain.Session, vars json.RawMessage) (any, error) {
	var in domain.PersonInput
	if err := decodeVariables(vars, &in); err != nil {
		return nil, err
	}
	p, err := a.directorySvc.AddPerson(ctx, sess, in)
	if err != nil {
		return nil, err
	}
	return newPersonResponse(p), nil
}

func (a *api) opEditPhone(ctx context.Context, sess *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		ID    string `json:"id"`
		Phone string `json:"phone"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	p, err := a.directorySvc.EditPhone(ctx, sess, v.ID, v.Phone)
	if err != nil {
		return nil, err
	}
	return optionalPersonResponse(p), nil
}

func (a *api) opCreateUser(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		Username string `json:"username"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	u, err := a.usersSvc.CreateUser(ctx, v.Username)
	if err != nil {
		return nil, err
	}
	return newUserResponse(u), nil
}

func (a *api) opLogin(ctx context.Context, _ *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	tok, err := a.authSvc.Login(ctx, v.Username, v.Password)
	if err != nil {
		return nil, err
	}
	return tokenResponse{Value: tok.Value}, nil
}

func (a *api) opAddAsFriend(ctx context.Context, sess *domain.Session, vars json.RawMessage) (any, error) {
	var v struct {
		Name string `json:"name"`
	}
	if err := decodeVariables(vars, &v); err != nil {
		return nil, err
	}
	u, err := a.friendsSvc.AddAsFriend(ctx, sess, v.Name)
	if err != nil {
		return nil, err
	}
	return newUserResponse(u), nil
}
