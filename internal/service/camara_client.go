package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jjenkins/camara/internal/model"
)

const (
	DefaultBaseURL = "https://dadosabertos.camara.leg.br/api/v2"
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 2 * time.Second
	pageSize       = 100
)

// CamaraClient handles communication with the Câmara open-data API. All
// requests share one rate limiter, so concurrent callers are throttled
// together.
type CamaraClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	backoff time.Duration
}

// NewCamaraClient creates a new open-data API client allowing at most
// requestsPerSecond requests.
func NewCamaraClient(baseURL string, requestsPerSecond float64) *CamaraClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CamaraClient{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		backoff: initialBackoff,
	}
}

// envelope is the shape shared by every open-data response
type envelope struct {
	Dados json.RawMessage `json:"dados"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (e envelope) next() string {
	for _, l := range e.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

type partyJSON struct {
	ID      int    `json:"id"`
	Sigla   string `json:"sigla"`
	Nome    string `json:"nome"`
	URLLogo string `json:"urlLogo"`
	Status  struct {
		IDLegislatura string `json:"idLegislatura"`
		Situacao      string `json:"situacao"`
		TotalPosse    string `json:"totalPosse"`
		TotalMembros  string `json:"totalMembros"`
	} `json:"status"`
}

type legislatorJSON struct {
	ID            int    `json:"id"`
	URI           string `json:"uri"`
	Nome          string `json:"nome"`
	SiglaPartido  string `json:"siglaPartido"`
	SiglaUf       string `json:"siglaUf"`
	IDLegislatura int    `json:"idLegislatura"`
	URLFoto       string `json:"urlFoto"`
}

type legislatorDetailJSON struct {
	ID           int    `json:"id"`
	NomeCivil    string `json:"nomeCivil"`
	Sexo         string `json:"sexo"`
	UltimoStatus struct {
		NomeEleitoral string `json:"nomeEleitoral"`
		SiglaPartido  string `json:"siglaPartido"`
		SiglaUf       string `json:"siglaUf"`
		IDLegislatura int    `json:"idLegislatura"`
		URLFoto       string `json:"urlFoto"`
		Gabinete      struct {
			Nome     string `json:"nome"`
			Predio   string `json:"predio"`
			Sala     string `json:"sala"`
			Andar    string `json:"andar"`
			Telefone string `json:"telefone"`
			Email    string `json:"email"`
		} `json:"gabinete"`
	} `json:"ultimoStatus"`
}

type expenseJSON struct {
	Ano            int     `json:"ano"`
	Mes            int     `json:"mes"`
	TipoDespesa    string  `json:"tipoDespesa"`
	CodDocumento   int64   `json:"codDocumento"`
	TipoDocumento  string  `json:"tipoDocumento"`
	URLDocumento   string  `json:"urlDocumento"`
	NomeFornecedor string  `json:"nomeFornecedor"`
	ValorLiquido   float64 `json:"valorLiquido"`
}

type sessionJSON struct {
	ID               string `json:"id"`
	URI              string `json:"uri"`
	DataHoraRegistro string `json:"dataHoraRegistro"`
	SiglaOrgao       string `json:"siglaOrgao"`
	Descricao        string `json:"descricao"`
	Aprovacao        *int   `json:"aprovacao"`
}

type sessionDetailJSON struct {
	ProposicoesAfetadas []struct {
		ID int `json:"id"`
	} `json:"proposicoesAfetadas"`
	UltimaAberturaVotacao *struct {
		Descricao string `json:"descricao"`
	} `json:"ultimaAberturaVotacao"`
}

type billJSON struct {
	ID               int    `json:"id"`
	SiglaTipo        string `json:"siglaTipo"`
	Ano              int    `json:"ano"`
	Ementa           string `json:"ementa"`
	DataApresentacao string `json:"dataApresentacao"`
	URLInteiroTeor   string `json:"urlInteiroTeor"`
	StatusProposicao struct {
		DescricaoSituacao string `json:"descricaoSituacao"`
	} `json:"statusProposicao"`
}

type voteJSON struct {
	TipoVoto         string `json:"tipoVoto"`
	DataRegistroVoto string `json:"dataRegistroVoto"`
	Deputado         struct {
		ID           int    `json:"id"`
		URI          string `json:"uri"`
		SiglaPartido string `json:"siglaPartido"`
	} `json:"deputado_"`
}

// SessionDetail lists the bills a session voted on.
type SessionDetail struct {
	BillIDs                []string
	LastOpeningDescription *string
}

// VoteRecord is a vote as published, keyed by the legislator's upstream id.
type VoteRecord struct {
	LegislatorExternalID int
	LegislatorURI        string
	PartyAcronym         string
	VoteType             string
	RegisteredAt         string
}

// FetchParties retrieves the ids of the parties active in a legislature
func (c *CamaraClient) FetchParties(ctx context.Context, legislature int) ([]int, error) {
	u := c.listURL("partidos", url.Values{"idLegislatura": {strconv.Itoa(legislature)}})

	var parties []partyJSON
	if err := fetchAll(ctx, c, u, &parties); err != nil {
		return nil, fmt.Errorf("failed to fetch parties: %w", err)
	}

	ids := make([]int, len(parties))
	for i, p := range parties {
		ids[i] = p.ID
	}
	return ids, nil
}

// FetchParty retrieves a party's details
func (c *CamaraClient) FetchParty(ctx context.Context, id int) (*model.Party, error) {
	var p partyJSON
	if err := c.fetchOne(ctx, fmt.Sprintf("%s/partidos/%d", c.baseURL, id), &p); err != nil {
		return nil, fmt.Errorf("failed to fetch party %d: %w", id, err)
	}

	return &model.Party{
		ExternalID:    p.ID,
		Acronym:       strings.ToUpper(p.Sigla),
		Name:          p.Nome,
		LogoURL:       optional(p.URLLogo),
		LegislatureID: optionalInt(p.Status.IDLegislatura),
		Status:        optional(p.Status.Situacao),
		TotalMembers:  optionalInt(p.Status.TotalMembros),
		TotalSwornIn:  optionalInt(p.Status.TotalPosse),
	}, nil
}

// FetchLegislators retrieves the legislators of a legislature without their
// details
func (c *CamaraClient) FetchLegislators(ctx context.Context, legislature int) ([]model.Legislator, error) {
	u := c.listURL("deputados", url.Values{"idLegislatura": {strconv.Itoa(legislature)}})

	var found []legislatorJSON
	if err := fetchAll(ctx, c, u, &found); err != nil {
		return nil, fmt.Errorf("failed to fetch legislators: %w", err)
	}

	legislators := make([]model.Legislator, len(found))
	for i, l := range found {
		legislators[i] = model.Legislator{
			ExternalID:    l.ID,
			DisplayName:   l.Nome,
			PartyAcronym:  strings.ToUpper(l.SiglaPartido),
			State:         strings.ToUpper(l.SiglaUf),
			LegislatureID: optionalInt(strconv.Itoa(l.IDLegislatura)),
			PhotoURL:      optional(l.URLFoto),
		}
	}
	return legislators, nil
}

// FetchLegislatorDetail fills l with its civil name, sex, current party and
// office
func (c *CamaraClient) FetchLegislatorDetail(ctx context.Context, l *model.Legislator) error {
	var d legislatorDetailJSON
	if err := c.fetchOne(ctx, fmt.Sprintf("%s/deputados/%d", c.baseURL, l.ExternalID), &d); err != nil {
		return fmt.Errorf("failed to fetch legislator %d: %w", l.ExternalID, err)
	}

	s := d.UltimoStatus
	l.CivilName = optional(d.NomeCivil)
	l.Sex = optional(strings.ToUpper(d.Sexo))
	if s.NomeEleitoral != "" {
		l.DisplayName = s.NomeEleitoral
	}
	if s.SiglaPartido != "" {
		l.PartyAcronym = strings.ToUpper(s.SiglaPartido)
	}
	if s.SiglaUf != "" {
		l.State = strings.ToUpper(s.SiglaUf)
	}

	g := s.Gabinete
	if g.Sala != "" || g.Predio != "" || g.Andar != "" {
		l.Office = &model.Office{
			Name:     optional(g.Nome),
			Building: optional(g.Predio),
			Room:     g.Sala,
			Floor:    optional(g.Andar),
			Phone:    optional(g.Telefone),
			Email:    optional(g.Email),
		}
	}
	return nil
}

// FetchExpenses retrieves every expense of a legislator in year
func (c *CamaraClient) FetchExpenses(ctx context.Context, legislatorExternalID, year int) ([]model.Expense, error) {
	u := c.listURL(fmt.Sprintf("deputados/%d/despesas", legislatorExternalID), url.Values{"ano": {strconv.Itoa(year)}})

	var found []expenseJSON
	if err := fetchAll(ctx, c, u, &found); err != nil {
		return nil, fmt.Errorf("failed to fetch expenses of legislator %d: %w", legislatorExternalID, err)
	}

	expenses := make([]model.Expense, len(found))
	for i, e := range found {
		expenses[i] = model.Expense{
			Year:         e.Ano,
			Month:        e.Mes,
			Category:     e.TipoDespesa,
			NetAmount:    e.ValorLiquido,
			DocumentType: optional(e.TipoDocumento),
			DocumentURL:  optional(e.URLDocumento),
			SupplierName: optional(e.NomeFornecedor),
		}
		if e.CodDocumento != 0 {
			code := e.CodDocumento
			expenses[i].DocumentCode = &code
		}
	}
	return expenses, nil
}

// FetchSessions retrieves the voting sessions registered between from and to
// (YYYY-MM-DD, inclusive)
func (c *CamaraClient) FetchSessions(ctx context.Context, from, to string) ([]model.VotingSession, error) {
	u := c.listURL("votacoes", url.Values{"dataInicio": {from}, "dataFim": {to}})

	var found []sessionJSON
	if err := fetchAll(ctx, c, u, &found); err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	sessions := make([]model.VotingSession, len(found))
	for i, s := range found {
		vs := model.VotingSession{
			ExternalID:   s.ID,
			RegisteredAt: optional(s.DataHoraRegistro),
			Description:  s.Descricao,
			Committee:    optional(strings.ToUpper(s.SiglaOrgao)),
			URI:          optional(s.URI),
		}
		if s.Aprovacao != nil {
			vs.Approval = optional(strconv.Itoa(*s.Aprovacao))
		}
		vs.Outcome = model.ParseOutcome(vs.Approval)
		sessions[i] = vs
	}
	return sessions, nil
}

// FetchSessionDetail retrieves the bills affected by a session
func (c *CamaraClient) FetchSessionDetail(ctx context.Context, sessionExternalID string) (*SessionDetail, error) {
	var d sessionDetailJSON
	if err := c.fetchOne(ctx, fmt.Sprintf("%s/votacoes/%s", c.baseURL, url.PathEscape(sessionExternalID)), &d); err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", sessionExternalID, err)
	}

	detail := &SessionDetail{BillIDs: make([]string, 0, len(d.ProposicoesAfetadas))}
	for _, p := range d.ProposicoesAfetadas {
		detail.BillIDs = append(detail.BillIDs, strconv.Itoa(p.ID))
	}
	if d.UltimaAberturaVotacao != nil {
		detail.LastOpeningDescription = optional(d.UltimaAberturaVotacao.Descricao)
	}
	return detail, nil
}

// FetchBill retrieves a bill's details
func (c *CamaraClient) FetchBill(ctx context.Context, id string) (*model.Bill, error) {
	var b billJSON
	if err := c.fetchOne(ctx, fmt.Sprintf("%s/proposicoes/%s", c.baseURL, url.PathEscape(id)), &b); err != nil {
		return nil, fmt.Errorf("failed to fetch bill %s: %w", id, err)
	}

	return &model.Bill{
		ExternalID:  strconv.Itoa(b.ID),
		TypeCode:    strings.ToUpper(b.SiglaTipo),
		Year:        b.Ano,
		Summary:     optional(b.Ementa),
		PresentedAt: optional(b.DataApresentacao),
		Status:      optional(b.StatusProposicao.DescricaoSituacao),
		DocumentURL: optional(b.URLInteiroTeor),
	}, nil
}

// FetchVotes retrieves the individual votes of a session
func (c *CamaraClient) FetchVotes(ctx context.Context, sessionExternalID string) ([]VoteRecord, error) {
	var found []voteJSON
	if err := c.fetchOne(ctx, fmt.Sprintf("%s/votacoes/%s/votos", c.baseURL, url.PathEscape(sessionExternalID)), &found); err != nil {
		return nil, fmt.Errorf("failed to fetch votes of session %s: %w", sessionExternalID, err)
	}

	votes := make([]VoteRecord, len(found))
	for i, v := range found {
		votes[i] = VoteRecord{
			LegislatorExternalID: v.Deputado.ID,
			LegislatorURI:        v.Deputado.URI,
			PartyAcronym:         strings.ToUpper(v.Deputado.SiglaPartido),
			VoteType:             strings.TrimSpace(v.TipoVoto),
			RegisteredAt:         v.DataRegistroVoto,
		}
	}
	return votes, nil
}

func (c *CamaraClient) listURL(path string, query url.Values) string {
	query.Set("itens", strconv.Itoa(pageSize))
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
}

// fetchOne decodes the dados field of a single response into dst
func (c *CamaraClient) fetchOne(ctx context.Context, u string, dst any) error {
	body, err := c.fetchWithRetry(ctx, u)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := json.Unmarshal(env.Dados, dst); err != nil {
		return fmt.Errorf("failed to parse dados: %w", err)
	}
	return nil
}

// fetchAll follows next links from u and appends every page's items to dst
func fetchAll[T any](ctx context.Context, c *CamaraClient, u string, dst *[]T) error {
	for u != "" {
		body, err := c.fetchWithRetry(ctx, u)
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		var items []T
		if err := json.Unmarshal(env.Dados, &items); err != nil {
			return fmt.Errorf("failed to parse dados: %w", err)
		}
		*dst = append(*dst, items...)

		u = env.next()
	}
	return nil
}

// fetchWithRetry performs an HTTP GET with exponential backoff retry
func (c *CamaraClient) fetchWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("not found: %s", u)
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
