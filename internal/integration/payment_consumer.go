package integration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RecordPaymentCommand 外部支付系统发布的到账命令
// 至少一次投递,按 PaymentRef 幂等入账
type RecordPaymentCommand struct {
	ApplicationID string          `json:"application_id"`
	PhaseID       string          `json:"phase_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentRef    string          `json:"payment_ref"`
}

// PaymentRecorder 支付入账接口,由支付阶段服务实现
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, applicationID, phaseID string, amount decimal.Decimal, paymentRef string) error
}

// PaymentConsumer 支付事件消费者
// 订阅 NATS 主题,把到账命令交给支付阶段服务处理
type PaymentConsumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	log     *logrus.Logger
}

// NewPaymentConsumer 连接 NATS 并订阅支付主题
func NewPaymentConsumer(url, subject, queueGroup string, recorder PaymentRecorder, log *logrus.Logger) (*PaymentConsumer, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	c := &PaymentConsumer{conn: conn, subject: subject, log: log}

	sub, err := conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		c.handle(msg, recorder)
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.sub = sub

	return c, nil
}

// handle 处理单条到账命令
// 重复投递由接收方按支付引用去重,这里不做状态判断
func (c *PaymentConsumer) handle(msg *nats.Msg, recorder PaymentRecorder) {
	var cmd RecordPaymentCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		c.log.WithError(err).Error("failed to decode payment command")
		return
	}
	if cmd.PaymentRef == "" || cmd.PhaseID == "" {
		c.log.WithField("subject", c.subject).Warn("payment command missing phase_id or payment_ref")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := recorder.RecordPayment(ctx, cmd.ApplicationID, cmd.PhaseID, cmd.Amount, cmd.PaymentRef); err != nil {
		c.log.WithFields(logrus.Fields{
			"phase_id":    cmd.PhaseID,
			"payment_ref": cmd.PaymentRef,
		}).WithError(err).Error("failed to record payment")
	}
}

// Close 取消订阅并断开连接
func (c *PaymentConsumer) Close() {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
