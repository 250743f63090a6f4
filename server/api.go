package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"msgsync/models"
	"msgsync/storage"
)

// MessageStore is the persistence the API needs.
type MessageStore interface {
	ListMessages() ([]storage.Message, error)
	GetMessage(messageID string) (*storage.Message, error)
	CreateMessage(content string) (*storage.Message, error)
	DeleteMessage(messageID string) error
}

type apiService struct {
	store MessageStore
	log   logrus.FieldLogger
}

func (a *apiService) listMessages(w http.ResponseWriter, r *http.Request) {
	rows, err := a.store.ListMessages()
	if err != nil {
		a.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.Model())
	}
	a.renderResponse(w, http.StatusOK, msgs)
}

func (a *apiService) getMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	row, err := a.store.GetMessage(id)
	if err != nil {
		a.renderStoreError(w, r, err)
		return
	}
	a.renderResponse(w, http.StatusOK, row.Model())
}

func (a *apiService) createMessage(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.renderError(w, r, http.StatusBadRequest, errors.New("request body must be JSON with a 'message' field"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.renderError(w, r, http.StatusBadRequest, errors.New("'message' param cannot be an empty string"))
		return
	}

	row, err := a.store.CreateMessage(req.Message)
	if err != nil {
		a.renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	a.log.WithFields(logrus.Fields{
		"message_id":    row.MessageID,
		"is_palindrome": row.IsPalindrome,
		"client_id":     r.Header.Get("X-Client-ID"),
	}).Info("message created")
	a.renderResponse(w, http.StatusCreated, row.Model())
}

func (a *apiService) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := a.store.DeleteMessage(id); err != nil {
		a.renderStoreError(w, r, err)
		return
	}

	a.log.WithField("message_id", id).Info("message deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (a *apiService) renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		a.renderError(w, r, http.StatusNotFound, err)
		return
	}
	a.renderError(w, r, http.StatusInternalServerError, err)
}

func (a *apiService) renderResponse(w http.ResponseWriter, code int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if resp != nil {
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			a.log.WithError(err).Error("encode response")
		}
	}
}

func (a *apiService) renderError(w http.ResponseWriter, r *http.Request, code int, err error) {
	a.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": code,
	}).Warn(http.StatusText(code))

	a.renderResponse(w, code, models.APIError{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}
