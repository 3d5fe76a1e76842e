package rest

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/pkg/authz"
)

type QAServer interface {
	Status(ctx context.Context) (pandaqa.Status, error)
	ProcessText(ctx context.Context, in pandaqa.TextInput) (int, error)
	Query(ctx context.Context, query pandaqa.Query) (pandaqa.Answer, error)
	Clear(ctx context.Context) error
	LMStatus(ctx context.Context) pandaqa.LMStatus
	SaveKnowledgeBase(ctx context.Context, dir string) error
	LoadKnowledgeBase(ctx context.Context, dir string) (int, error)
	Summarize(ctx context.Context) (pandaqa.Summary, error)
	CreateFile(ctx context.Context, principal authz.Principal, file io.ReadSeeker, header *multipart.FileHeader, role pandaqa.Role) (*pandaqa.File, error)
	ListFiles(ctx context.Context, principal authz.Principal) ([]*pandaqa.File, error)
	FindFile(ctx context.Context, principal authz.Principal, id pandaqa.FileID) (*pandaqa.File, error)
	DeleteFile(ctx context.Context, principal authz.Principal, id pandaqa.FileID) error
}

type Adapter struct {
	qaServer QAServer
}

func New(qaServer QAServer) *Adapter {
	return &Adapter{
		qaServer: qaServer,
	}
}

const (
	defaultTimeout = 3 * time.Second
	queryTimeout   = 120 * time.Second
)

var (
	principalID     = authz.ID{UUID: uuid.Must(uuid.FromString("b486ea88-95c4-4140-86c9-dd19f6fa879f"))}
	staticPrincipal = authz.New(principalID, "static-user")
)

func (a *Adapter) principalFromRequest(r *http.Request) authz.Principal {
	// TODO - get actual principal from the request later when auth is implemented.
	// For now, we use a static hardcoded principal for testing purposes.
	return staticPrincipal
}
