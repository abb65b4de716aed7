package estoqueapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/fees"
)

// Payment reference data is shared with the fee resolver.
type (
	PaymentType = fees.PaymentType
	CardAccount = fees.CardAccount
	CardRule    = fees.CardRule
)

type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type Movement struct {
	Label   string `json:"label"`
	Inflow  int    `json:"entradas"`
	Outflow int    `json:"saidas"`
}

type DashboardSummary struct {
	CriticalStock    int             `json:"estoqueCritico"`
	SalesToday       decimal.Decimal `json:"vendasHoje"`
	PendingPurchases int             `json:"comprasPendentes"`
	MonthReceivables decimal.Decimal `json:"recebimentosMes"`
	StockAlerts      []string        `json:"alertaEstoques"`
	Movements        []Movement      `json:"movimentacao"`
}

// Option is an entry of one of the product catalogs (tipos, cores,
// materiais, tamanhos).
type Option struct {
	ID   string `json:"id"`
	Name string `json:"nome"`
	Code string `json:"codigo,omitempty"`
}

type CatalogInput struct {
	Name string `json:"nome"`
	Code string `json:"codigo"`
}

type ProductPrice struct {
	Current decimal.Decimal `json:"precoVendaAtual"`
}

type Product struct {
	ID       string        `json:"id"`
	Code     string        `json:"codigo"`
	Name     string        `json:"nome"`
	Note     string        `json:"observacao,omitempty"`
	Active   bool          `json:"ativo"`
	Type     *Option       `json:"tipo,omitempty"`
	Color    *Option       `json:"cor,omitempty"`
	Material *Option       `json:"material,omitempty"`
	Size     *Option       `json:"tamanho,omitempty"`
	Price    *ProductPrice `json:"preco,omitempty"`
	// Stock is nil when the backend does not report it.
	Stock *int `json:"estoqueAtual,omitempty"`
}

// CurrentPrice is the sale price or zero.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return p.Price.Current
}

type ProductInput struct {
	Name       string           `json:"nome"`
	TypeID     string           `json:"tipoProdutoId,omitempty"`
	ColorID    string           `json:"corId,omitempty"`
	MaterialID string           `json:"materialId,omitempty"`
	SizeID     string           `json:"tamanhoId,omitempty"`
	Note       string           `json:"observacao,omitempty"`
	Price      *decimal.Decimal `json:"precoVendaAtual,omitempty"`
	Active     *bool            `json:"ativo,omitempty"`
}

type ProductUpdate struct {
	Name string `json:"nome,omitempty"`
	Note string `json:"observacao,omitempty"`
}

type PriceUpdate struct {
	Price decimal.Decimal `json:"precoVendaAtual"`
}

type PriceChange struct {
	OldPrice  decimal.Decimal `json:"precoAntigo"`
	NewPrice  decimal.Decimal `json:"precoNovo"`
	CreatedAt string          `json:"createdAt,omitempty"`
	Reason    string          `json:"motivo,omitempty"`
}

// ProductPage is one page of /produtos. The endpoint answers with either a
// paginated envelope or a bare list; Envelope tells which.
type ProductPage struct {
	Items    []Product
	Total    *int
	Page     int
	PerPage  int
	Envelope bool
}

type Supplier struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	Address   string `json:"endereco,omitempty"`
	Phone     string `json:"telefone,omitempty"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"observacoes,omitempty"`
	Principal bool   `json:"principal,omitempty"`
}

type SupplierInput struct {
	Name      string `json:"nome" validate:"required,max=80"`
	Address   string `json:"endereco,omitempty" validate:"max=120"`
	Phone     string `json:"telefone,omitempty" validate:"max=20"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Notes     string `json:"observacoes,omitempty" validate:"max=255"`
	Principal bool   `json:"principal,omitempty"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"nome"`
	Phone string `json:"telefone,omitempty"`
	Email string `json:"email,omitempty"`
	Notes string `json:"observacoes,omitempty"`
}

type CustomerInput struct {
	Name  string `json:"nome" validate:"required,max=80"`
	Phone string `json:"telefone,omitempty" validate:"max=20"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Notes string `json:"observacoes,omitempty" validate:"max=255"`
}

type PaymentTypeInput struct {
	Description     string          `json:"descricao" validate:"required"`
	Category        fees.Bucket     `json:"categoria,omitempty"`
	FixedFee        decimal.Decimal `json:"taxaFixa"`
	PercentFee      decimal.Decimal `json:"taxaPercentual"`
	InstallmentFee  decimal.Decimal `json:"taxaParcela"`
	DiscountPercent decimal.Decimal `json:"descontoPercentual"`
	Installable     bool            `json:"parcelavel"`
	MinInstallments int             `json:"minParcelas" validate:"gte=1"`
	MaxInstallments int             `json:"maxParcelas" validate:"gtefield=MinInstallments"`
}

type CardAccountInput struct {
	Name       string `json:"nome" validate:"required"`
	Bank       string `json:"banco,omitempty"`
	Brand      string `json:"bandeira,omitempty"`
	ClosingDay *int   `json:"diaFechamento,omitempty" validate:"omitempty,min=1,max=31"`
	DueDay     *int   `json:"diaVencimento,omitempty" validate:"omitempty,min=1,max=31"`
	PixKey     string `json:"pixChave,omitempty"`
	Active     bool   `json:"ativo"`
}

type InvoicePayment struct {
	CardAccountID string `json:"cartaoContaId"`
	Month         string `json:"mesReferencia"`
	PaidAt        string `json:"dataPagamentoReal"`
}

// Ref is the {id, nome} shape the API embeds for related records.
type Ref struct {
	ID          string `json:"id"`
	Name        string `json:"nome,omitempty"`
	Description string `json:"descricao,omitempty"`
}

// UnmarshalJSON also accepts a bare string, which some endpoints send in
// place of the embedded object.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

type PurchaseItem struct {
	ID        string          `json:"id,omitempty"`
	Quantity  int             `json:"qtde"`
	UnitValue decimal.Decimal `json:"valorUnit"`
	Total     decimal.Decimal `json:"valorTotal"`
	Item      *struct {
		Name string `json:"nome,omitempty"`
		Code string `json:"codigo,omitempty"`
	} `json:"item,omitempty"`
}

type Purchase struct {
	ID           string          `json:"id"`
	Date         string          `json:"data"`
	Supplier     *Ref            `json:"fornecedor,omitempty"`
	PaymentType  *Ref            `json:"tipoPagamento,omitempty"`
	Total        decimal.Decimal `json:"totalCompra"`
	Status       string          `json:"status"`
	Installments int             `json:"parcelas,omitempty"`
	Items        []PurchaseItem  `json:"itens,omitempty"`
}

type PurchaseItemInput struct {
	ProductID string          `json:"produtoId"`
	Quantity  int             `json:"qtde"`
	UnitValue decimal.Decimal `json:"valorUnit"`
}

type PurchaseInput struct {
	Date          string              `json:"data"`
	SupplierID    string              `json:"fornecedorId"`
	PaymentTypeID string              `json:"tipoPagamentoId"`
	CardAccountID string              `json:"cartaoContaId,omitempty"`
	Installments  int                 `json:"parcelas"`
	Freight       decimal.Decimal     `json:"frete"`
	Notes         string              `json:"observacoes,omitempty"`
	Items         []PurchaseItemInput `json:"itens"`
}

// PurchasePayment is one installment of a purchase or card charge.
type PurchasePayment struct {
	ID          string          `json:"id"`
	Purchase    *Ref            `json:"compra,omitempty"`
	Number      int             `json:"nParcela"`
	DueDate     string          `json:"dataVencimento,omitempty"`
	Value       decimal.Decimal `json:"valorParcela"`
	Status      string          `json:"statusPagamento"`
	PaidAt      string          `json:"dataPagamento,omitempty"`
	CardAccount *Ref            `json:"cartaoConta,omitempty"`
	PaymentType *Ref            `json:"tipoPagamento,omitempty"`
}

// PaymentStatusPaid is the status the API uses for settled installments.
const PaymentStatusPaid = "paga"

type PaymentUpdate struct {
	Status string `json:"statusPagamento"`
	PaidAt string `json:"dataPagamento"`
}

type ExpenseItem struct {
	ID          string           `json:"id,omitempty"`
	Description string           `json:"descricaoItem,omitempty"`
	Quantity    *int             `json:"qtde,omitempty"`
	UnitValue   *decimal.Decimal `json:"valorUnit,omitempty"`
	Total       *decimal.Decimal `json:"valorTotal,omitempty"`
}

type ExpensePayment struct {
	ID          string          `json:"id"`
	Expense     *Ref            `json:"gasto,omitempty"`
	Number      int             `json:"nParcela"`
	DueDate     string          `json:"dataVencimento,omitempty"`
	Value       decimal.Decimal `json:"valorParcela"`
	Status      string          `json:"statusPagamento"`
	CardAccount *Ref            `json:"cartaoConta,omitempty"`
}

type Expense struct {
	ID           string           `json:"id"`
	Date         string           `json:"data"`
	Description  string           `json:"descricao,omitempty"`
	Supplier     *Ref             `json:"fornecedor,omitempty"`
	PaymentType  Ref              `json:"tipoPagamento"`
	CardAccount  *Ref             `json:"cartaoConta,omitempty"`
	Installments int              `json:"parcelas"`
	Total        decimal.Decimal  `json:"totalCompra"`
	Status       string           `json:"status"`
	Note         string           `json:"observacao,omitempty"`
	Notes        string           `json:"observacoes,omitempty"`
	Items        []ExpenseItem    `json:"itens,omitempty"`
	Payments     []ExpensePayment `json:"pagamentos,omitempty"`
}

type ExpenseItemInput struct {
	Description string          `json:"descricao"`
	Quantity    int             `json:"qtde"`
	UnitValue   decimal.Decimal `json:"valorUnit"`
}

type ExpenseInput struct {
	Date          string             `json:"data"`
	Description   string             `json:"descricao,omitempty"`
	SupplierID    string             `json:"fornecedorId,omitempty"`
	PaymentTypeID string             `json:"tipoPagamentoId"`
	CardAccountID string             `json:"cartaoContaId,omitempty"`
	Installments  int                `json:"parcelas"`
	Total         decimal.Decimal    `json:"totalCompra"`
	Notes         string             `json:"observacoes,omitempty"`
	Items         []ExpenseItemInput `json:"itens"`
}

type SaleItemInput struct {
	ProductID string          `json:"produtoId"`
	Quantity  int             `json:"qtde"`
	UnitPrice decimal.Decimal `json:"valorUnit"`
}

type SaleInput struct {
	Date          string          `json:"data"`
	CustomerID    string          `json:"clienteId,omitempty"`
	PaymentTypeID string          `json:"tipoPagamentoId"`
	CardAccountID string          `json:"cartaoContaId,omitempty"`
	Installments  int             `json:"parcelas"`
	Total         decimal.Decimal `json:"valorTotal"`
	FeeTotal      decimal.Decimal `json:"valorTaxa"`
	NetTotal      decimal.Decimal `json:"valorLiquido"`
	RuleTag       string          `json:"regraTipo,omitempty"`
	Notes         string          `json:"observacoes,omitempty"`
	Items         []SaleItemInput `json:"itens"`
}

type Sale struct {
	ID           string          `json:"id"`
	Date         string          `json:"data"`
	Customer     *Ref            `json:"cliente,omitempty"`
	PaymentType  *Ref            `json:"tipoPagamento,omitempty"`
	CardAccount  *Ref            `json:"cartaoConta,omitempty"`
	Installments int             `json:"parcelas"`
	Total        decimal.Decimal `json:"valorTotal"`
	NetTotal     decimal.Decimal `json:"valorLiquido"`
	Status       string          `json:"status,omitempty"`
}
