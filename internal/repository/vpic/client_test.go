package vpic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workorder/internal/domain/entity"
)

func newServer(t *testing.T, status int, body string, gotPath *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path + "?" + r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDecode_MapsFieldsVerbatim(t *testing.T) {
	var path string
	srv := newServer(t, http.StatusOK, `{"Count":1,"Message":"ok","Results":[{
		"Make":"TOYOTA","Model":"Corolla","ModelYear":"2015","Manufacturer":"TOYOTA MOTOR MANUFACTURING CANADA",
		"VehicleType":"PASSENGER CAR","EngineCylinders":"4","FuelTypePrimary":"Gasoline",
		"TransmissionStyle":"","ErrorCode":"0"}]}`, &path)

	c := NewClient(srv.URL, time.Second, nil)
	info, err := c.Decode(context.Background(), "2T1BURHE0FC123456")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if path != "/vehicles/DecodeVinValues/2T1BURHE0FC123456?format=json" {
		t.Fatalf("unexpected request %q", path)
	}
	want := entity.VehicleInfo{
		Make:            "TOYOTA",
		Model:           "Corolla",
		Year:            "2015",
		Manufacturer:    "TOYOTA MOTOR MANUFACTURING CANADA",
		VehicleType:     "PASSENGER CAR",
		EngineCylinders: "4",
		FuelType:        "Gasoline",
	}
	if info != want {
		t.Fatalf("got %+v, want %+v", info, want)
	}
}

func TestDecode_EmptyResultIsNotFound(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Count":1,"Results":[{"Make":"","Model":"","ErrorCode":"11"}]}`, nil)

	_, err := NewClient(srv.URL, time.Second, nil).Decode(context.Background(), "BAD")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecode_ServerErrorIsCollaboratorFailure(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `oops`, nil)

	_, err := NewClient(srv.URL, time.Second, nil).Decode(context.Background(), "X")
	if !errors.Is(err, entity.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestDecode_MalformedBody(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Results":`, nil)

	_, err := NewClient(srv.URL, time.Second, nil).Decode(context.Background(), "X")
	if !errors.Is(err, entity.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}
