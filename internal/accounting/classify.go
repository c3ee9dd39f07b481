package accounting

// NormalBalance is the column an account's balance grows in.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// Section places an account on the balance sheet or the income statement.
type Section string

const (
	SectionCurrentAssets         Section = "CURRENT_ASSETS"
	SectionNonCurrentAssets      Section = "NON_CURRENT_ASSETS"
	SectionCurrentLiabilities    Section = "CURRENT_LIABILITIES"
	SectionNonCurrentLiabilities Section = "NON_CURRENT_LIABILITIES"
	SectionEquity                Section = "EQUITY"
	SectionRevenue               Section = "REVENUE"
	SectionOtherIncome           Section = "OTHER_INCOME"
	SectionCostOfSales           Section = "COST_OF_SALES"
	SectionOperatingExpenses     Section = "OPERATING_EXPENSES"
	SectionOtherExpenses         Section = "OTHER_EXPENSES"
)

// CashFlowRole tells the indirect cash-flow builder how an account's change
// reaches the statement.
type CashFlowRole string

const (
	CashFlowCash                    CashFlowRole = "CASH"
	CashFlowWorkingCapitalAsset     CashFlowRole = "WORKING_CAPITAL_ASSET"
	CashFlowWorkingCapitalLiability CashFlowRole = "WORKING_CAPITAL_LIABILITY"
	CashFlowNonCash                 CashFlowRole = "NON_CASH"
	CashFlowInvesting               CashFlowRole = "INVESTING"
	CashFlowFinancingDebt           CashFlowRole = "FINANCING_DEBT"
	CashFlowFinancingEquity         CashFlowRole = "FINANCING_EQUITY"
	CashFlowDrawings                CashFlowRole = "DRAWINGS"
	CashFlowRetainedEarnings        CashFlowRole = "RETAINED_EARNINGS"
	CashFlowIncome                  CashFlowRole = "INCOME"
)

// Expense category labels used by the P&L.
const (
	ExpenseCategoryPayroll      = "Payroll"
	ExpenseCategoryFacilities   = "Facilities"
	ExpenseCategoryMarketing    = "Marketing"
	ExpenseCategoryDepreciation = "Depreciation"
	ExpenseCategoryAdmin        = "Administrative"
	ExpenseCategoryProfessional = "Professional Services"
	ExpenseCategoryTravel       = "Travel"
	ExpenseCategoryOther        = "Other"
)

var normalBalances = map[AccountType]NormalBalance{
	AccountTypeAsset:     NormalDebit,
	AccountTypeExpense:   NormalDebit,
	AccountTypeLiability: NormalCredit,
	AccountTypeEquity:    NormalCredit,
	AccountTypeRevenue:   NormalCredit,
}

var currentAssets = map[AccountSubType]struct{}{
	SubTypeCash:               {},
	SubTypeBank:               {},
	SubTypeAccountsReceivable: {},
	SubTypeInventory:          {},
	SubTypePrepaidExpenses:    {},
	SubTypeOtherCurrentAssets: {},
}

var currentLiabilities = map[AccountSubType]struct{}{
	SubTypeAccountsPayable:         {},
	SubTypeAccruedLiabilities:      {},
	SubTypePayrollLiabilities:      {},
	SubTypeTaxPayable:              {},
	SubTypeUnearnedRevenue:         {},
	SubTypeShortTermDebt:           {},
	SubTypeOtherCurrentLiabilities: {},
}

var otherIncome = map[AccountSubType]struct{}{
	SubTypeOtherIncome:    {},
	SubTypeInterestIncome: {},
}

var otherExpenses = map[AccountSubType]struct{}{
	SubTypeInterestExpense:     {},
	SubTypeIncomeTaxExpense:    {},
	SubTypeNonOperatingExpense: {},
}

var expenseCategories = map[AccountSubType]string{
	SubTypeSalaries:         ExpenseCategoryPayroll,
	SubTypePayrollTaxes:     ExpenseCategoryPayroll,
	SubTypeRent:             ExpenseCategoryFacilities,
	SubTypeUtilities:        ExpenseCategoryFacilities,
	SubTypeMarketing:        ExpenseCategoryMarketing,
	SubTypeDepreciation:     ExpenseCategoryDepreciation,
	SubTypeOfficeSupplies:   ExpenseCategoryAdmin,
	SubTypeInsurance:        ExpenseCategoryAdmin,
	SubTypeProfessionalFees: ExpenseCategoryProfessional,
	SubTypeTravel:           ExpenseCategoryTravel,
}

var debtAccounts = map[AccountSubType]struct{}{
	SubTypeShortTermDebt:              {},
	SubTypeLongTermDebt:               {},
	SubTypeOtherNonCurrentLiabilities: {},
}

// NormalBalanceOf returns the normal-balance column of an account type.
// Unknown types are treated as debit-normal.
func NormalBalanceOf(t AccountType) NormalBalance {
	if nb, ok := normalBalances[t]; ok {
		return nb
	}
	return NormalDebit
}

// SectionOf classifies an account into its statement section.
func SectionOf(t AccountType, sub AccountSubType) Section {
	switch t {
	case AccountTypeAsset:
		if _, ok := currentAssets[sub]; ok {
			return SectionCurrentAssets
		}
		return SectionNonCurrentAssets
	case AccountTypeLiability:
		if _, ok := currentLiabilities[sub]; ok {
			return SectionCurrentLiabilities
		}
		return SectionNonCurrentLiabilities
	case AccountTypeEquity:
		return SectionEquity
	case AccountTypeRevenue:
		if _, ok := otherIncome[sub]; ok {
			return SectionOtherIncome
		}
		return SectionRevenue
	case AccountTypeExpense:
		if sub == SubTypeCostOfGoodsSold {
			return SectionCostOfSales
		}
		if _, ok := otherExpenses[sub]; ok {
			return SectionOtherExpenses
		}
		return SectionOperatingExpenses
	}
	return SectionNonCurrentAssets
}

// ExpenseCategoryOf maps an operating expense sub type to its P&L category.
func ExpenseCategoryOf(sub AccountSubType) string {
	if category, ok := expenseCategories[sub]; ok {
		return category
	}
	return ExpenseCategoryOther
}

// IsDebt reports whether the sub type carries interest-bearing debt.
func IsDebt(sub AccountSubType) bool {
	_, ok := debtAccounts[sub]
	return ok
}

// CashFlowRoleOf decides how an account's change is reported by the
// indirect cash-flow statement.
func CashFlowRoleOf(t AccountType, sub AccountSubType) CashFlowRole {
	switch t {
	case AccountTypeAsset:
		switch {
		case sub == SubTypeCash || sub == SubTypeBank:
			return CashFlowCash
		case sub == SubTypeAccumulatedDepreciation:
			return CashFlowNonCash
		case SectionOf(t, sub) == SectionCurrentAssets:
			return CashFlowWorkingCapitalAsset
		}
		return CashFlowInvesting
	case AccountTypeLiability:
		if IsDebt(sub) {
			return CashFlowFinancingDebt
		}
		if SectionOf(t, sub) == SectionCurrentLiabilities {
			return CashFlowWorkingCapitalLiability
		}
		return CashFlowFinancingDebt
	case AccountTypeEquity:
		switch sub {
		case SubTypeRetainedEarnings:
			return CashFlowRetainedEarnings
		case SubTypeDrawings:
			return CashFlowDrawings
		}
		return CashFlowFinancingEquity
	}
	return CashFlowIncome
}
