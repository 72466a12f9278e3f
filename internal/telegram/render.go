package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
)

const parseModeMarkdown = "Markdown"

const (
	msgGreeting          = "Olá! 👋 Sou o assistente de atendimentos. Escolha uma opção:"
	msgMainMenu          = "Escolha uma opção:"
	msgFinal             = "✅ Pronto! Use /menu para iniciar uma nova operação."
	msgCancelled         = "Operação cancelada."
	msgUseMenu           = "Use /menu para ver as opções."
	msgExpired           = "Esta opção expirou. Use /menu para começar de novo."
	msgStoreUnavailable  = "❌ Não foi possível acessar a planilha. Tente novamente mais tarde."
	msgGenericError      = "❌ Ocorreu um erro inesperado. Operação cancelada."
	msgInvalidDateDDMM   = "❌ Data inválida. Use o formato DD/MM (ex: 25/12)."
	msgPromptDateDDMM    = "📅 Digite a data (DD/MM):"
	msgNoRecordsForDate  = "Nenhum atendimento encontrado para %s."
	msgRegAskDate        = "📅 Para qual data é o atendimento?"
	msgRegPromptPatient  = "👤 Digite o nome do paciente:"
	msgRegPatientEmpty   = "❌ O nome do paciente não pode ficar vazio. Digite novamente:"
	msgRegSelectProcs    = "💆 Selecione os procedimentos e toque em Continuar:"
	msgRegNoProcSelected = "Selecione pelo menos um procedimento."
	msgRegSelectPrice    = "💰 Selecione o valor do atendimento:"
	msgRegAskAnother     = "Deseja registrar outro atendimento para a mesma data?"
	msgRegFinished       = "Registro finalizado."
	msgListAskDate       = "📋 De qual data deseja listar os atendimentos?"
	msgCalcChoosePeriod  = "🧮 Escolha o período para calcular:"
	msgCalcMonthlyPrompt = "📆 Relatório mensal (dia 7 ao dia 6 do mês seguinte). Qual mês?"
	msgCalcPromptMonth   = "📅 Digite o mês (MM/AAAA):"
	msgCalcInvalidInput  = "❌ Entrada inválida. Verifique o formato e tente novamente."
	msgCalcNoRecords     = "Nenhum atendimento encontrado para %s."
	msgAnalyticsMenu     = "📈 *Análises*\nEscolha um relatório:"
	msgAnalyticsNoData   = "Ainda não há dados para análise."
	msgDelAskDate        = "🗑️ De qual data é o atendimento que deseja deletar?"
	msgDelSelectRecord   = "🗑️ *Atendimentos de %s*\nSelecione o registro para deletar:"
	msgDelSuccess        = "🗑️ Atendimento deletado com sucesso."
	msgDelStale          = "⚠️ A lista mudou desde que foi exibida. Confira a lista atualizada."
	msgDelRecordNotFound = "⚠️ Registro não encontrado."
)

var calcPrompts = map[period.Mode]string{
	period.ModeDay:           "📅 Digite o dia (DD/MM/AAAA):",
	period.ModeWeek:          "📅 Digite uma data (DD/MM/AAAA) de referência para a semana:",
	period.ModeMonth:         msgCalcPromptMonth,
	period.ModeRange:         "📅 Digite a data de início e fim (DD/MM/AAAA DD/MM/AAAA):",
	period.ModeMonthlyReport: msgCalcPromptMonth,
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes free text safe inside legacy Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func button(text, data string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: data}
}

func keyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func mainMenuKeyboard() *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button("🚀 Registrar Novo Atendimento", "menu_registrar")},
		[]InlineKeyboardButton{button("📋 Listar Atendimentos do Dia", "menu_listar")},
		[]InlineKeyboardButton{button("🧮 Calcular Atendimentos", "menu_calcular")},
		[]InlineKeyboardButton{button("🗑️ Deletar Atendimento", "menu_deletar")},
		[]InlineKeyboardButton{button("📈 Ver Análises", "menu_analytics")},
		[]InlineKeyboardButton{button("ℹ️ Ver Procedimentos", "menu_procedimentos")},
	)
}

func backToMenuRow() []InlineKeyboardButton {
	return []InlineKeyboardButton{button("🔙 Voltar ao Menu", "menu_back")}
}

func dateChoiceKeyboard(prefix string) *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button("Hoje", prefix+"_today")},
		[]InlineKeyboardButton{button("Outra data (DD/MM)", prefix+"_other_date")},
		backToMenuRow(),
	)
}

func proceduresKeyboard(selected func(string) bool) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(catalog.All())+2)
	for _, p := range catalog.All() {
		mark := "⬜️"
		if selected(p.Slug) {
			mark = "✅"
		}
		rows = append(rows, []InlineKeyboardButton{button(mark+" "+p.Name, "proc_"+p.Slug)})
	}
	rows = append(rows,
		[]InlineKeyboardButton{button("➡️ Continuar", "proc_done")},
		[]InlineKeyboardButton{button("🔙 Cancelar", "reg_cancel")},
	)
	return keyboard(rows...)
}

func priceKeyboard() *InlineKeyboardMarkup {
	row := make([]InlineKeyboardButton, 0, len(catalog.AllowedPrices))
	for _, p := range catalog.AllowedPrices {
		row = append(row, button(records.FormatBRL(decimal.NewFromInt(p)), "price_"+strconv.FormatInt(p, 10)))
	}
	return keyboard(row, []InlineKeyboardButton{button("🔙 Voltar", "price_back")})
}

func anotherKeyboard() *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button("Sim, para a mesma data", "reg_another_yes")},
		[]InlineKeyboardButton{button("Não, finalizar", "reg_another_no")},
	)
}

func calcKeyboard() *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button("Hoje", "calc_dia_today"), button("Esta Semana", "calc_semana_this")},
		[]InlineKeyboardButton{button("Este Mês", "calc_mes_this")},
		[]InlineKeyboardButton{button("Relatório Mensal", "calc_monthly_report")},
		[]InlineKeyboardButton{button("Outro Dia", "calc_dia_other"), button("Outra Semana", "calc_semana_other")},
		[]InlineKeyboardButton{button("Outro Mês", "calc_mes_other")},
		[]InlineKeyboardButton{button("Período Específico", "calc_periodo_other")},
		backToMenuRow(),
	)
}

func monthlyKeyboard(currentMonth string) *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button(fmt.Sprintf("Este Mês [%s]", currentMonth), "calc_monthly_this")},
		[]InlineKeyboardButton{button("Outro Mês", "calc_monthly_other")},
		[]InlineKeyboardButton{button("🔙 Voltar", "calc_back")},
	)
}

func analyticsKeyboard() *InlineKeyboardMarkup {
	return keyboard(
		[]InlineKeyboardButton{button("💰 Faturamento", "analytics_revenue")},
		[]InlineKeyboardButton{button("📅 Atendimentos", "analytics_appointments")},
		[]InlineKeyboardButton{button("⭐ Procedimentos", "analytics_procedures")},
		[]InlineKeyboardButton{button("👤 Pacientes", "analytics_patients")},
		backToMenuRow(),
	)
}

func deleteKeyboard(candidates []records.Record) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(candidates)+1)
	for i, rec := range candidates {
		rows = append(rows, []InlineKeyboardButton{button(recordLine(rec), "del_record_"+strconv.Itoa(i))})
	}
	rows = append(rows, []InlineKeyboardButton{button("🔙 Cancelar", "del_cancel")})
	return keyboard(rows...)
}

func confirmDeleteKeyboard() *InlineKeyboardMarkup {
	return keyboard([]InlineKeyboardButton{
		button("Sim, deletar", "del_confirm_yes"),
		button("Não, voltar", "del_confirm_no"),
	})
}

func recordLine(rec records.Record) string {
	return fmt.Sprintf("%s | %s | %s", rec.PatientName(), records.DisplayProcedures(rec.Procedures), records.FormatBRL(rec.Price))
}

func renderProcedures() string {
	var b strings.Builder
	b.WriteString("ℹ️ *Procedimentos disponíveis*\n\n")
	for _, p := range catalog.All() {
		fmt.Fprintf(&b, "• %s\n", p.Name)
	}
	return b.String()
}

func renderRegistered(rec records.Record) string {
	return fmt.Sprintf("✅ *Atendimento registrado!*\n\n📅 *Data:* %s\n👤 *Paciente:* %s\n💆 *Procedimentos:* %s\n💰 *Valor:* %s",
		rec.DateString(),
		escape(rec.PatientName()),
		escape(records.DisplayProcedures(rec.Procedures)),
		records.FormatBRL(rec.Price),
	)
}

func renderDay(date string, sum report.RangeSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Atendimentos de %s*\n\n", date)
	for _, day := range sum.Days {
		for _, rec := range day.Records {
			fmt.Fprintf(&b, "👤 *Paciente:* %s\n   *Procedimentos:* %s\n   *Valor:* %s\n\n",
				escape(rec.PatientName()), escape(records.DisplayProcedures(rec.Procedures)), records.FormatBRL(rec.Price))
		}
	}
	fmt.Fprintf(&b, "💰 *Total do dia:* %s", records.FormatBRL(sum.Total))
	return b.String()
}

func renderSummary(out ledger.Summary) string {
	sum := out.Summary
	if sum.Empty() {
		return fmt.Sprintf(msgCalcNoRecords, out.Period.Label)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📄 *Relatório de Atendimentos*\n🗓️ *Período:* de %s a %s\n%s\n",
		out.Period.Start.Format(records.DateLayout), out.Period.End.Format(records.DateLayout), strings.Repeat("═", 20))
	for i, day := range sum.Days {
		if i > 0 {
			fmt.Fprintf(&b, "\n%s\n", strings.Repeat("─", 20))
		}
		noun := "atendimentos"
		if len(day.Records) == 1 {
			noun = "atendimento"
		}
		fmt.Fprintf(&b, "\n🗓️ *%s* (%d %s)\n", day.Date.Format(records.DateLayout), len(day.Records), noun)
		for _, rec := range day.Records {
			fmt.Fprintf(&b, "  • *%s* | %s | %s\n",
				escape(rec.PatientName()), escape(records.DisplayProcedures(rec.Procedures)), records.FormatBRL(rec.Price))
		}
		fmt.Fprintf(&b, "  💰 *Total do dia:* %s\n", records.FormatBRL(day.Total))
	}
	if out.Period.Mode != period.ModeDay {
		if len(sum.Days) > 1 {
			fmt.Fprintf(&b, "\n%s", strings.Repeat("═", 20))
		}
		fmt.Fprintf(&b, "\n📊 *Total de atendimentos:* %d\n💰 *Valor total:* %s", sum.Count, records.FormatBRL(sum.Total))
	}
	return b.String()
}

func renderAnalytics(a ledger.Analytics) string {
	switch r := a.(type) {
	case report.RevenueReport:
		if r.Empty() {
			return "Nenhum faturamento encontrado."
		}
		var b strings.Builder
		b.WriteString("💰 *Faturamento Mensal*\n\n")
		for _, bucket := range r.Buckets {
			fmt.Fprintf(&b, "*%s:* %s\n", bucket.Bucket.Key(), records.FormatBRL(bucket.Total))
		}
		fmt.Fprintf(&b, "\n*Total Geral:* %s", records.FormatBRL(r.GrandTotal))
		return b.String()
	case report.AppointmentReport:
		if r.Empty() {
			return "Nenhum atendimento encontrado."
		}
		var b strings.Builder
		b.WriteString("📅 *Atendimentos por Mês*\n\n")
		for _, bucket := range r.Buckets {
			fmt.Fprintf(&b, "*%s:* %d atendimentos\n", bucket.Bucket.Key(), bucket.Count)
		}
		return b.String()
	case report.RankingReport:
		return renderRanking(r)
	}
	return msgGenericError
}

func renderRanking(r report.RankingReport) string {
	if r.Empty() {
		return "Nenhum dado encontrado para este relatório."
	}
	var b strings.Builder
	if r.Kind == report.KindProcedures {
		b.WriteString("⭐ *Procedimentos Populares por Mês*\n")
	} else {
		b.WriteString("👤 *Ranking de Pacientes por Mês*\n")
	}
	for _, bucket := range r.Buckets {
		fmt.Fprintf(&b, "\n*%s*\n", bucket.Bucket.Key())
		for _, e := range bucket.Entries {
			fmt.Fprintf(&b, "  - %s: %d\n", escape(e.Name), e.Count)
		}
	}
	return b.String()
}
