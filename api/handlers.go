package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errTaskNotFound       = errors.New("task not found or unauthorized")
	errInternal           = errors.New("internal server error")
)

// dummyPasswordHash is compared against when login hits an unknown email,
// so both failure paths cost a bcrypt comparison.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user"), bcryptCost)

const bcryptCost = 12

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	writeJSON(w, http.StatusOK, healthCheck)
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Name != "", "name", "must be provided")
	v.checkCond(len(input.Name) <= 255, "name", "must be atmost 255 characters")
	v.checkEmail(input.Email)
	v.checkPassword(input.Password)
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	u := &user{
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
	}
	err = app.storage.insertUser(u)
	if err != nil {
		if errors.Is(err, errDuplicateEmail) {
			writeError(w, errDuplicateEmail, http.StatusBadRequest)
			return
		}
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := issueToken(u.ID, []byte(app.config.jwt.secret), app.config.jwt.validity)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}

	app.sendWelcomeEmail(u)

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":       u,
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := newValidator()
	v.checkCond(input.Email != "", "email", "must be provided")
	v.checkCond(input.Password != "", "password", "must be provided")
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	u, err := app.storage.getUserByEmail(input.Email)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if u == nil {
		// burn a comparison so an unknown email takes as long as a
		// wrong password
		bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(input.Password))
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}
	err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(input.Password))
	if err != nil {
		writeError(w, errInvalidCredentials, http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := issueToken(u.ID, []byte(app.config.jwt.secret), app.config.jwt.validity)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       u,
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromRequest(r)
	ttl := time.Until(session.ExpiresAt.Time)
	err := app.denylist.Revoke(r.Context(), session.ID, ttl)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	tasks, err := app.storage.getTasksForUser(u.ID)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(input.Title)
	v := newValidator()
	v.checkTitle(title)
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	t := &task{
		UserID:      u.ID,
		Title:       title,
		Description: input.Description,
	}
	err = app.storage.insertTask(t)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}

	// only these three fields are updatable; ownership can never be
	// reassigned through this path
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		IsCompleted *bool   `json:"completed"`
	}
	err = json.NewDecoder(r.Body).Decode(&input)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}

	t, err := app.storage.getTaskForUser(id, u.ID)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		v := newValidator()
		v.checkTitle(title)
		if v.hasErrors() {
			writeValidationErrors(w, v)
			return
		}
		t.Title = title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.IsCompleted != nil {
		t.IsCompleted = *input.IsCompleted
	}

	err = app.storage.updateTask(t)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}
	t, err := app.storage.deleteTaskForUser(id, u.ID)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	if t == nil {
		writeError(w, errTaskNotFound, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Println(err)
		writeError(w, errInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		log.Println(merr)
		return
	}
	w.Write(data)
}

func writeValidationErrors(w http.ResponseWriter, v *validator) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusBadRequest)
	data, err := json.Marshal(map[string]any{"error": v.errors})
	if err != nil {
		log.Println(err)
		return
	}
	w.Write(data)
}
