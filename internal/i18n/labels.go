package i18n

import "paysched/internal/core"

// StatusLabels, MethodLabels and TypeLabels hold one field per enum variant. A new
// variant needs a field and a case here; TestEveryLabelIsFilled ranges over the
// core.All* lists and fails for any variant left without a label.
type StatusLabels struct {
	Upcoming, Pending, Paid, Overdue, Deferred string
}

func (l StatusLabels) For(s core.Status) string {
	switch s {
	case core.StatusUpcoming:
		return l.Upcoming
	case core.StatusPending:
		return l.Pending
	case core.StatusPaid:
		return l.Paid
	case core.StatusOverdue:
		return l.Overdue
	case core.StatusDeferred:
		return l.Deferred
	}
	return string(s)
}

type MethodLabels struct {
	BankTransfer, CreditCard, Check, Cash, Other string
}

func (l MethodLabels) For(m core.PaymentMethod) string {
	switch m {
	case core.MethodBankTransfer:
		return l.BankTransfer
	case core.MethodCreditCard:
		return l.CreditCard
	case core.MethodCheck:
		return l.Check
	case core.MethodCash:
		return l.Cash
	case core.MethodOther:
		return l.Other
	}
	return string(m)
}

type TypeLabels struct {
	OneTime, Daily, Weekly, Monthly string
}

func (l TypeLabels) For(t core.PaymentType) string {
	switch t {
	case core.TypeOneTime:
		return l.OneTime
	case core.TypeDaily:
		return l.Daily
	case core.TypeWeekly:
		return l.Weekly
	case core.TypeMonthly:
		return l.Monthly
	}
	return string(t)
}

// Chrome holds the UI strings of the HTML pages.
type Chrome struct {
	AppTitle string

	Dashboard        string
	Overview         string
	WeeklyTotal      string
	MonthlyTotal     string
	PendingPayments  string
	OverduePayments  string
	UpcomingPayments string
	DeferredPayments string
	DeferredCount    string
	ViewAll          string

	CalendarView string
	Today        string
	PrevMonth    string
	NextMonth    string
	NoPayments   string
	DailyTotal   string
	OriginalDue  string
	PlannedFor   string
	Reason       string
	Reschedule   string
	MarkPending  string
	Defer        string

	TableView    string
	Search       string
	FilterStatus string
	All          string
	Payee        string
	Amount       string
	DueDate      string
	Status       string
	Method       string
	Type         string
	Notes        string
	Actions      string
	Edit         string
	Delete       string

	AddPayment  string
	EditPayment string
	Save        string
	Cancel      string

	Document         string
	UploadInvoice    string
	ViewFile         string
	NoFile           string
	SupportedFormats string
	MaxSize          string

	TrashView         string
	Restore           string
	PermanentDelete   string
	DeletedDate       string
	NoDeletedPayments string
	ConfirmRestore    string
	ConfirmDelete     string

	Language string
}

var enCatalog = Catalog{
	Lang:     EN,
	Statuses: StatusLabels{"Upcoming", "Pending", "Paid", "Overdue", "Deferred"},
	Methods:  MethodLabels{"Bank Transfer", "Credit Card", "Check", "Cash", "Other"},
	Types:    TypeLabels{"One-time", "Daily", "Weekly", "Monthly"},
	UI: Chrome{
		AppTitle: "Payment Schedule",

		Dashboard:        "Dashboard",
		Overview:         "Financial Overview",
		WeeklyTotal:      "Weekly Total",
		MonthlyTotal:     "Monthly Total",
		PendingPayments:  "Pending Payments",
		OverduePayments:  "Overdue Payments",
		UpcomingPayments: "Upcoming Payments",
		DeferredPayments: "Deferred Payments",
		DeferredCount:    "Deferred Count",
		ViewAll:          "View All",

		CalendarView: "Calendar View",
		Today:        "Today",
		PrevMonth:    "Previous month",
		NextMonth:    "Next month",
		NoPayments:   "No payments scheduled",
		DailyTotal:   "Daily Total",
		OriginalDue:  "Originally Due",
		PlannedFor:   "Planned For",
		Reason:       "Reason",
		Reschedule:   "Reschedule",
		MarkPending:  "Mark as Pending",
		Defer:        "Defer",

		TableView:    "Table View",
		Search:       "Search payments...",
		FilterStatus: "Filter by status",
		All:          "All",
		Payee:        "Payee",
		Amount:       "Amount (JPY)",
		DueDate:      "Due Date",
		Status:       "Status",
		Method:       "Method",
		Type:         "Payment Type",
		Notes:        "Notes",
		Actions:      "Actions",
		Edit:         "Edit",
		Delete:       "Delete Payment",

		AddPayment:  "Add New Payment",
		EditPayment: "Edit Payment",
		Save:        "Save Payment",
		Cancel:      "Cancel",

		Document:         "Invoice",
		UploadInvoice:    "Upload Invoice",
		ViewFile:         "View File",
		NoFile:           "No file attached",
		SupportedFormats: "Supported formats: PDF, JPG, PNG, DOC, DOCX",
		MaxSize:          "Maximum file size: 5MB",

		TrashView:         "Deleted Payments",
		Restore:           "Restore",
		PermanentDelete:   "Delete Permanently",
		DeletedDate:       "Deleted Date",
		NoDeletedPayments: "No deleted payments",
		ConfirmRestore:    "Are you sure you want to restore this payment?",
		ConfirmDelete:     "Are you sure you want to permanently delete this payment?",

		Language: "Language",
	},
}

var jaCatalog = Catalog{
	Lang:     JA,
	Statuses: StatusLabels{"予定", "保留中", "支払済み", "期限切れ", "繰延"},
	Methods:  MethodLabels{"銀行振込", "クレジットカード", "小切手", "現金", "その他"},
	Types:    TypeLabels{"一回限り", "毎日", "毎週", "毎月"},
	UI: Chrome{
		AppTitle: "支払いスケジュール",

		Dashboard:        "ダッシュボード",
		Overview:         "財務概要",
		WeeklyTotal:      "週間合計",
		MonthlyTotal:     "月間合計",
		PendingPayments:  "保留中の支払い",
		OverduePayments:  "期限切れの支払い",
		UpcomingPayments: "今後の支払い",
		DeferredPayments: "繰延支払",
		DeferredCount:    "繰延数",
		ViewAll:          "すべて表示",

		CalendarView: "カレンダー表示",
		Today:        "今日",
		PrevMonth:    "前月",
		NextMonth:    "翌月",
		NoPayments:   "支払い予定なし",
		DailyTotal:   "日次合計",
		OriginalDue:  "当初期日",
		PlannedFor:   "計画",
		Reason:       "理由",
		Reschedule:   "スケジュール変更",
		MarkPending:  "保留中としてマーク",
		Defer:        "繰延",

		TableView:    "テーブル表示",
		Search:       "支払いを検索...",
		FilterStatus: "ステータスで絞り込み",
		All:          "すべて",
		Payee:        "支払先",
		Amount:       "金額 (円)",
		DueDate:      "期日",
		Status:       "ステータス",
		Method:       "支払い方法",
		Type:         "支払いタイプ",
		Notes:        "備考",
		Actions:      "操作",
		Edit:         "編集",
		Delete:       "支払いを削除",

		AddPayment:  "新しい支払いを追加",
		EditPayment: "支払いを編集",
		Save:        "支払いを保存",
		Cancel:      "キャンセル",

		Document:         "請求書",
		UploadInvoice:    "請求書アップロード",
		ViewFile:         "ファイル表示",
		NoFile:           "ファイルなし",
		SupportedFormats: "対応形式: PDF, JPG, PNG, DOC, DOCX",
		MaxSize:          "最大ファイルサイズ: 5MB",

		TrashView:         "削除済み支払い",
		Restore:           "復元",
		PermanentDelete:   "完全削除",
		DeletedDate:       "削除日",
		NoDeletedPayments: "削除済み支払いはありません",
		ConfirmRestore:    "この支払いを復元しますか？",
		ConfirmDelete:     "この支払いを完全に削除しますか？",

		Language: "言語",
	},
}
