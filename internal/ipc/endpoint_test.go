package ipc

import "testing"

func TestDefaultEndpoint(t *testing.T) {
	t.Setenv("WINCOM_SERVICE_ADDR", "")
	ep := DefaultEndpoint()
	if ep.Network != "tcp" || ep.Address != defaultServiceAddr {
		t.Fatalf("unexpected default endpoint: %s", ep.String())
	}
}

func TestDefaultEndpointEnvOverride(t *testing.T) {
	t.Setenv("WINCOM_SERVICE_ADDR", " 127.0.0.1:9000 ")
	ep := DefaultEndpoint()
	if ep.Address != "127.0.0.1:9000" {
		t.Fatalf("env override not applied: %s", ep.String())
	}
	if ep.String() != "tcp://127.0.0.1:9000" {
		t.Fatalf("unexpected string form: %s", ep.String())
	}
}
