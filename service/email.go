package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"ledger/config"

	"gopkg.in/gomail.v2"
)

var _ BatchNotifier = (*EmailService)(nil)

// EmailService 邮件服务，支付完成后发送批次明细
type EmailService struct {
	cfg     *config.EmailConfig
	format  *CurrencyFormatter
	baseURL string
	send    func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务，baseURL 非空时邮件中附带支付历史链接
func NewEmailService(cfg *config.EmailConfig, format *CurrencyFormatter, baseURL string) *EmailService {
	s := &EmailService{cfg: cfg, format: format, baseURL: strings.TrimRight(baseURL, "/")}
	s.send = s.dialAndSend
	return s
}

var batchPaidTemplate = template.Must(template.New("batch_paid").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>{{.Person}} 已结清 {{.Total}}</h2>
    <p style="color: #666;">批次号: {{.BatchID}}<br>支付时间: {{.PaidAt}}</p>
    <table style="border-collapse: collapse;">
        <tr><th align="left">项目</th><th align="left">添加时间</th><th align="right">金额</th></tr>
        {{range .Items}}<tr><td>{{.Item}}</td><td>{{.AddedAt}}</td><td align="right">{{.Cost}}</td></tr>
        {{end}}
    </table>
    {{if .HistoryURL}}<p><a href="{{.HistoryURL}}">查看支付历史</a></p>{{end}}
    <p style="color: #666;">此邮件由系统自动发送，请勿回复</p>
</body>
</html>
`))

type mailItem struct {
	Item    string
	AddedAt string
	Cost    string
}

type mailBody struct {
	Person     string
	BatchID    string
	PaidAt     string
	Total      string
	HistoryURL string
	Items      []mailItem
}

// generateBatchPaidBody 生成批次通知邮件内容
func (s *EmailService) generateBatchPaidBody(entry HistoryEntry) (string, error) {
	data := mailBody{
		Person:  entry.Person,
		BatchID: entry.BatchID,
		PaidAt:  entry.PaidAt.Format("2006-01-02 15:04:05"),
		Total:   s.format.Format(entry.Total),
	}
	if s.baseURL != "" {
		data.HistoryURL = s.baseURL + "/history"
	}
	for _, it := range entry.Items {
		data.Items = append(data.Items, mailItem{
			Item:    it.Item,
			AddedAt: it.AddedAt.Format("2006-01-02 15:04"),
			Cost:    s.format.Format(it.Cost),
		})
	}

	var buf bytes.Buffer
	if err := batchPaidTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("生成邮件内容失败: %w", err)
	}
	return buf.String(), nil
}

// BatchPaid 发送批次结清通知，未启用时直接返回
func (s *EmailService) BatchPaid(ctx context.Context, entry HistoryEntry) error {
	if !s.cfg.Enabled || len(s.cfg.NotifyTo) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.generateBatchPaidBody(entry)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("【记账】%s 已结清 %s", entry.Person, s.format.Format(entry.Total))
	return s.sendEmail(s.cfg.NotifyTo, subject, body)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to []string, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
