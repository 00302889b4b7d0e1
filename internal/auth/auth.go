package auth

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/yosbany/NRDOperaciones-sub000/internal/store"
	"github.com/yosbany/NRDOperaciones-sub000/internal/token"
)

type Auth interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

const (
	HeaderUserCodeKey = "X-User-Code"
	cookieUserToken   = "operacionesUserToken"
)

type auth struct {
	store store.Store
}

func NewAuth(store store.Store) Auth {
	return &auth{store: store}
}

type credentialsJSONRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (a *auth) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userCode, err := a.store.AuthRegister(r.Context(), creds.Login, creds.Password)
	if err != nil {
		switch err {
		case store.ErrAlreadyExists:
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	a.setTokenCookie(w, userCode)
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userCode, err := a.store.AuthLogin(r.Context(), creds.Login, creds.Password)
	if err != nil {
		switch err {
		case store.ErrNoRows:
			http.Error(w, err.Error(), http.StatusUnauthorized)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	a.setTokenCookie(w, userCode)
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// identificacion del usuario
		userCode, err := a.getUserCode(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		r.Header.Set(HeaderUserCodeKey, userCode)

		h.ServeHTTP(w, r)
	}
}

func readCredentials(r *http.Request) (credentialsJSONRequest, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return credentialsJSONRequest{}, err
	}
	var creds credentialsJSONRequest
	if err := json.Unmarshal(buf.Bytes(), &creds); err != nil {
		return credentialsJSONRequest{}, err
	}
	return creds, nil
}

func (a *auth) setTokenCookie(w http.ResponseWriter, userCode string) {
	tokenString, err := token.BuildToken(userCode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieUserToken,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusOK)
}

func (a *auth) getUserCode(r *http.Request) (string, error) {
	tokenCookie, err := r.Cookie(cookieUserToken)
	if err != nil {
		return "", err
	}
	return token.GetUserCode(tokenCookie.Value)
}
