package engine

import (
	"context"
)

// fakeGateway embeds the interface so tests only implement what they call.
type fakeGateway struct {
	Gateway

	mapping      Mapping
	mappingErr   error
	mappingCalls int

	getErr error
	pingFn func(ctx context.Context) error
}

func (f *fakeGateway) GetMapping(_ context.Context, _ string) (Mapping, error) {
	f.mappingCalls++
	return f.mapping, f.mappingErr
}

func (f *fakeGateway) CreateIndex(_ context.Context, _ string, _ IndexSpec) error {
	return nil
}

func (f *fakeGateway) DeleteIndex(_ context.Context, _ string) error {
	return nil
}

func (f *fakeGateway) Get(_ context.Context, index, id string) (*Hit, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &Hit{Index: index, ID: id, Source: Document{}}, nil
}

func (f *fakeGateway) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}
