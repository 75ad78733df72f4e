package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/logger"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

func tx(desc, typ string, amount float64) dto.TransactionInput {
	return dto.TransactionInput{TransactionDescription: desc, TransactionType: typ, Amount: amount}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "comissao de venda", NormalizeText("  Comissão   de VENDA "))
	assert.Equal(t, "devolucao", NormalizeText("Devolução"))
}

func TestProcess_UnionAcrossPriorities(t *testing.T) {
	e := NewEngine(nil, logger.Discard())
	res := e.Process(tx("Reembolso de frete", "ajuste_pedido", 10), dto.MarketplaceShopee)

	assert.Contains(t, res.Tags, "frete")
	assert.Contains(t, res.Tags, "reembolso")
	assert.Contains(t, res.Tags, "ajuste")
	assert.Equal(t, []string{"reembolso", "ajuste", "frete"}, res.MatchedRules)
	assert.Equal(t, "refund", res.Category)
	assert.Equal(t, len(SystemRules()), res.RulesEvaluated)
}

func TestProcess_UnionRegardlessOfPriority(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{
		{Name: "low", Pattern: "frete", Tags: []string{"Frete"}, Priority: 1},
		{Name: "high", Pattern: "reembolso", Tags: []string{"reembolso"}, Priority: 99},
	})
	res := e.Process(tx("reembolso frete", "", 0), "")
	assert.ElementsMatch(t, []string{"frete", "reembolso"}, res.Tags)

	e.Load([]Rule{
		{Name: "low", Pattern: "reembolso", Tags: []string{"reembolso"}, Priority: 1},
		{Name: "high", Pattern: "frete", Tags: []string{"frete"}, Priority: 99},
	})
	res = e.Process(tx("reembolso frete", "", 0), "")
	assert.ElementsMatch(t, []string{"frete", "reembolso"}, res.Tags)
}

func TestProcess_DiacriticInsensitive(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{{Name: "comissao", Pattern: "comissão", Tags: []string{"comissão"}, Priority: 1}})
	res := e.Process(tx("COMISSAO sobre venda", "", 0), "")
	assert.Equal(t, []string{"comissão"}, res.Tags)
}

func TestProcess_TagsDeduplicated(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{
		{Name: "a", Pattern: "taxa", Tags: []string{"taxa", "TAXA "}, Priority: 5},
		{Name: "b", Pattern: "tarifa", Tags: []string{"taxa"}, Priority: 4},
	})
	res := e.Process(tx("taxa e tarifa", "", 0), "")
	assert.Equal(t, []string{"taxa"}, res.Tags)
}

func TestProcess_ExpenseAndSkip(t *testing.T) {
	e := NewEngine([]string{"transferencia_interna"}, logger.Discard())

	res := e.Process(tx("Saque para conta bancária", "withdrawal", 50), "")
	assert.True(t, res.IsExpense)
	assert.Contains(t, res.Tags, "saque")

	res = e.Process(tx("Transferência", "TRANSFERENCIA_INTERNA", 50), "")
	assert.True(t, res.Skipped)

	res = e.Process(tx("Venda", "order", 30), "")
	assert.False(t, res.IsExpense)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Tags)
}

func TestProcess_IncomeClearsSignOnlyWithoutExpenseRule(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{{Name: "bonus", Pattern: "bonus", Tags: []string{"bonus"}, Priority: 1, MarkIncome: true}})
	res := e.Process(tx("bonus", "", -5), "")
	assert.False(t, res.IsExpense)
	assert.True(t, res.IsIncome)

	e.Load([]Rule{
		{Name: "bonus", Pattern: "bonus", Tags: []string{"bonus"}, Priority: 1, MarkIncome: true},
		{Name: "ads", Pattern: "ads", Tags: []string{"ads"}, Priority: 1, MarkExpense: true},
	})
	res = e.Process(tx("bonus ads", "", 5), "")
	assert.True(t, res.IsExpense)
	assert.False(t, res.IsIncome)
}

func TestProcess_MarketplaceScope(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{{Name: "ml", Pattern: "tarifa", Tags: []string{"tarifa_ml"}, Priority: 1, Marketplaces: []string{"mercado_livre"}}})

	assert.Empty(t, e.Process(tx("tarifa", "", 0), dto.MarketplaceShopee).Tags)
	assert.Equal(t, []string{"tarifa_ml"}, e.Process(tx("tarifa", "", 0), dto.MarketplaceMercadoLivre).Tags)
	assert.Equal(t, []string{"tarifa_ml"}, e.Process(tx("tarifa", "", 0), ScopeAll).Tags)
}

func TestProcess_FlagReview(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	e.Load([]Rule{{Name: "chargeback", Pattern: "chargeback", Tags: []string{"chargeback"}, Priority: 1, FlagReview: true, ReviewNote: "check dispute"}})
	res := e.Process(tx("Chargeback", "", 0), "")
	assert.True(t, res.FlaggedForReview)
	assert.Equal(t, "check dispute", res.ReviewNote)
}

func TestProcess_SystemRuleTerms(t *testing.T) {
	e := NewEngine(nil, logger.Discard())
	cases := []struct {
		desc string
		tag  string
	}{
		{"Chargeback do pedido", "reembolso"},
		{"Devolução parcial", "reembolso"},
		{"Compensação de saldo", "ajuste"},
		{"Correção de valor", "ajuste"},
		{"Anúncio patrocinado", "marketing"},
		{"Taxa MDR", "taxa"},
		{"MDR cartão", "taxa"},
		{"Comissão de venda", "taxa"},
		{"Frete grátis", "frete"},
		{"Transferência para conta", "saque"},
		{"Abatimento no pedido", "desconto"},
		{"Cupom da loja", "desconto"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Contains(t, e.Process(tx(c.desc, "", 0), "").Tags, c.tag)
		})
	}

	res := e.Process(tx("Transferência para conta", "", 20), "")
	assert.True(t, res.IsExpense)
	assert.NotContains(t, e.Process(tx("Admdra", "", 0), "").Tags, "taxa")
}

func TestValidateRule(t *testing.T) {
	require.NoError(t, ValidateRule(Rule{Name: "ok", Pattern: "frete", Tags: []string{"frete"}}))

	err := ValidateRule(Rule{Name: "", Pattern: "(", Tags: []string{" "}, Priority: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, constant.ErrValidation)
	var ce *constant.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Len(t, ce.Data(), 4)
}

func TestEngine_InvalidCustomRuleSkipped(t *testing.T) {
	e := newEngine(false, nil, logger.Discard())
	n := e.Load([]Rule{
		{Name: "bad", Pattern: "(", Tags: []string{"x"}},
		{Name: "good", Pattern: "x", Tags: []string{"x"}},
	})
	assert.Equal(t, 1, n)
}

func TestTestRule_OnlyCandidate(t *testing.T) {
	samples := []dto.TransactionInput{
		tx("Frete grátis", "", 0),
		tx("Reembolso", "", 0),
		tx("Frete reverso", "", 0),
		tx("Venda", "", 0),
	}
	res, err := TestRule(Rule{Name: "frete", Pattern: "frete", Tags: []string{"frete"}}, samples, "", logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 2, res.MatchCount)
	assert.Equal(t, 4, res.Total)
	assert.InDelta(t, 0.5, res.MatchRate, 1e-9)
	// 不含内置规则
	assert.Empty(t, res.Results[1].Tags)

	_, err = TestRule(Rule{Name: "bad", Pattern: "[", Tags: []string{"x"}}, samples, "", logger.Discard())
	assert.ErrorIs(t, err, constant.ErrValidation)
}

type memRules struct {
	rows    []reconmodel.Rule
	loadErr error
}

func (m *memRules) ListEnabled(context.Context) ([]reconmodel.Rule, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []reconmodel.Rule
	for _, r := range m.rows {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}
func (m *memRules) List(context.Context) ([]reconmodel.Rule, error) { return m.rows, nil }
func (m *memRules) GetByID(_ context.Context, id uint64) (*reconmodel.Rule, error) {
	for _, r := range m.rows {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}
func (m *memRules) Create(_ context.Context, r *reconmodel.Rule) error {
	r.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *r)
	return nil
}
func (m *memRules) Save(_ context.Context, r *reconmodel.Rule) error {
	for i := range m.rows {
		if m.rows[i].ID == r.ID {
			m.rows[i] = *r
		}
	}
	return nil
}

func TestService_CreateReloadsAndRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := &memRules{}
	svc := NewService(store, NewEngine(nil, logger.Discard()), logger.Discard())

	_, err := svc.Create(ctx, dto.RuleReq{Name: "bad", Pattern: "(", Tags: []string{"x"}}, "admin")
	assert.ErrorIs(t, err, constant.ErrValidation)
	assert.Empty(t, store.rows, "invalid rule never stored")

	m, err := svc.Create(ctx, dto.RuleReq{Name: "cashback", Pattern: "cashback", Tags: []string{"Cashback"}, Priority: 10}, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"cashback"}, m.Tags)
	assert.Contains(t, svc.Process(tx("Cashback campanha", "", 0), "").Tags, "cashback")

	require.NoError(t, svc.Disable(ctx, m.ID, "admin"))
	assert.NotContains(t, svc.Process(tx("Cashback campanha", "", 0), "").Tags, "cashback")

	assert.ErrorIs(t, svc.Disable(ctx, 42, "admin"), constant.ErrNotFound)
}

func TestService_WriteSucceedsWhenReloadFails(t *testing.T) {
	ctx := context.Background()
	store := &memRules{}
	svc := NewService(store, NewEngine(nil, logger.Discard()), logger.Discard())

	m, err := svc.Create(ctx, dto.RuleReq{Name: "cashback", Pattern: "cashback", Tags: []string{"cashback"}, Priority: 10}, "admin")
	require.NoError(t, err)
	require.Len(t, store.rows, 1)

	store.loadErr = errors.New("db gone")
	up, err := svc.Update(ctx, m.ID, dto.RuleReq{Name: "cashback", Pattern: "cashback|bonus", Tags: []string{"cashback"}, Priority: 10}, "admin")
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, "cashback|bonus", store.rows[0].Pattern)
	// 旧快照仍然生效
	assert.Contains(t, svc.Process(tx("Cashback", "", 0), "").Tags, "cashback")
	assert.NotContains(t, svc.Process(tx("bonus", "", 0), "").Tags, "cashback")

	n, err := svc.Create(ctx, dto.RuleReq{Name: "promo", Pattern: "promo", Tags: []string{"promo"}, Priority: 5}, "admin")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	require.NoError(t, svc.Disable(ctx, m.ID, "admin"))
	assert.False(t, store.rows[0].Enabled)
}
