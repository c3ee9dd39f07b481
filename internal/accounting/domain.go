package accounting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists the categories in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// AccountSubType is the finer tag driving statement classification.
type AccountSubType string

const (
	SubTypeCash                       AccountSubType = "CASH"
	SubTypeBank                       AccountSubType = "BANK"
	SubTypeAccountsReceivable         AccountSubType = "ACCOUNTS_RECEIVABLE"
	SubTypeInventory                  AccountSubType = "INVENTORY"
	SubTypePrepaidExpenses            AccountSubType = "PREPAID_EXPENSES"
	SubTypeOtherCurrentAssets         AccountSubType = "OTHER_CURRENT_ASSETS"
	SubTypeFixedAssets                AccountSubType = "FIXED_ASSETS"
	SubTypeAccumulatedDepreciation    AccountSubType = "ACCUMULATED_DEPRECIATION"
	SubTypeInvestments                AccountSubType = "INVESTMENTS"
	SubTypeIntangibleAssets           AccountSubType = "INTANGIBLE_ASSETS"
	SubTypeOtherNonCurrentAssets      AccountSubType = "OTHER_NON_CURRENT_ASSETS"
	SubTypeAccountsPayable            AccountSubType = "ACCOUNTS_PAYABLE"
	SubTypeAccruedLiabilities         AccountSubType = "ACCRUED_LIABILITIES"
	SubTypePayrollLiabilities         AccountSubType = "PAYROLL_LIABILITIES"
	SubTypeTaxPayable                 AccountSubType = "TAX_PAYABLE"
	SubTypeUnearnedRevenue            AccountSubType = "UNEARNED_REVENUE"
	SubTypeShortTermDebt              AccountSubType = "SHORT_TERM_DEBT"
	SubTypeOtherCurrentLiabilities    AccountSubType = "OTHER_CURRENT_LIABILITIES"
	SubTypeLongTermDebt               AccountSubType = "LONG_TERM_DEBT"
	SubTypeOtherNonCurrentLiabilities AccountSubType = "OTHER_NON_CURRENT_LIABILITIES"
	SubTypeOwnersEquity               AccountSubType = "OWNERS_EQUITY"
	SubTypeShareCapital               AccountSubType = "SHARE_CAPITAL"
	SubTypeRetainedEarnings           AccountSubType = "RETAINED_EARNINGS"
	SubTypeDrawings                   AccountSubType = "DRAWINGS"
	SubTypeSalesRevenue               AccountSubType = "SALES_REVENUE"
	SubTypeServiceRevenue             AccountSubType = "SERVICE_REVENUE"
	SubTypeOtherIncome                AccountSubType = "OTHER_INCOME"
	SubTypeInterestIncome             AccountSubType = "INTEREST_INCOME"
	SubTypeCostOfGoodsSold            AccountSubType = "COST_OF_GOODS_SOLD"
	SubTypeSalaries                   AccountSubType = "SALARIES"
	SubTypePayrollTaxes               AccountSubType = "PAYROLL_TAXES"
	SubTypeRent                       AccountSubType = "RENT"
	SubTypeUtilities                  AccountSubType = "UTILITIES"
	SubTypeMarketing                  AccountSubType = "MARKETING"
	SubTypeDepreciation               AccountSubType = "DEPRECIATION"
	SubTypeOfficeSupplies             AccountSubType = "OFFICE_SUPPLIES"
	SubTypeInsurance                  AccountSubType = "INSURANCE"
	SubTypeTravel                     AccountSubType = "TRAVEL"
	SubTypeProfessionalFees           AccountSubType = "PROFESSIONAL_FEES"
	SubTypeInterestExpense            AccountSubType = "INTEREST_EXPENSE"
	SubTypeIncomeTaxExpense           AccountSubType = "INCOME_TAX_EXPENSE"
	SubTypeNonOperatingExpense        AccountSubType = "NON_OPERATING_EXPENSE"
)

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoid   JournalStatus = "VOID"
)

// Account models a chart of accounts node. OpeningBalance is expressed in the
// account's normal-balance sign.
type Account struct {
	ID             int64
	Code           string
	Name           string
	Type           AccountType
	SubType        AccountSubType
	OpeningBalance decimal.Decimal
	IsActive       bool
}

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID           int64
	Number       int64
	Date         time.Time
	Status       JournalStatus
	SourceModule string
	SourceID     uuid.UUID
	Memo         string
	Lines        []JournalLine
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// PostedLine is a journal line of a POSTED entry joined to its entry date.
type PostedLine struct {
	EntryID   int64
	AccountID int64
	Date      time.Time
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = errors.New("accounting: journal line amounts must not be negative")
	// ErrAccountNotFound indicates a line references an account outside the chart.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrInvalidRange indicates a malformed report date range.
	ErrInvalidRange = errors.New("accounting: invalid date range")
)

// Validate ensures the entry is a well-formed double-entry posting.
func (e JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return ErrTooFewLines
	}
	debit, credit := e.Totals()
	for idx, line := range e.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("accounting: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d: %w", idx, ErrNegativeAmount)
		}
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	if e.SourceID == uuid.Nil {
		return errors.New("accounting: source id required")
	}
	return nil
}

// Totals sums the debit and credit columns of the entry.
func (e JournalEntry) Totals() (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}
