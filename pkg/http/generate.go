package http

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/mock_http_client.go github.com/Dusk-Labs/dim-sub002/pkg/http HTTPClient
