package report

import (
	"bytes"
	"fmt"
	"net/smtp"

	"fosterassist/lib/timezone"

	"github.com/jordan-wright/email"
)

// MailConfig drives the optional report email. Leaving the host empty
// disables mailing entirely.
type MailConfig struct {
	Host     string   `json:"host" yaml:"host"`
	Port     int      `json:"port" yaml:"port"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"password" yaml:"password"`
	From     string   `json:"from" yaml:"from"`
	To       []string `json:"to" yaml:"to"`
}

func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

// Mail sends the finished report as a CSV attachment to the program
// coordinators.
func Mail(config MailConfig, reportCSV []byte) error {
	if len(config.To) == 0 {
		return fmt.Errorf("mail config has no recipients")
	}

	today := timezone.Now().Format("2-Jan-2006")

	msg := email.NewEmail()
	msg.From = config.From
	msg.To = config.To
	msg.Subject = fmt.Sprintf("Foster Report %s", today)
	msg.Text = []byte(fmt.Sprintf("Attached is the foster report for %s.\n", today))

	filename := fmt.Sprintf("foster-report-%s.csv", timezone.Now().Format("2006-01-02"))
	_, err := msg.Attach(bytes.NewReader(reportCSV), filename, "text/csv")
	if err != nil {
		return fmt.Errorf("attach report: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	err = msg.Send(addr, smtp.PlainAuth("", config.Username, config.Password, config.Host))
	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}
