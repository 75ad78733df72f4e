package dal

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"marketplace-recon-api/internal/config"
)

var (
	mqConn    *amqp.Connection
	mqChannel *amqp.Channel

	mu sync.Mutex

	// 用 NotifyClose 事件判断是否已关闭
	connClosedCh chan *amqp.Error
	chClosedCh   chan *amqp.Error

	reconnecting bool
)

// InitRabbitMQ 首次连接并声明交换机与草稿队列
func InitRabbitMQ() error {
	return connect()
}

func connect() error {
	mu.Lock()
	defer mu.Unlock()

	if isConnAlive() && isChanAlive() {
		return nil
	}

	c := config.C.RabbitMQ
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s", c.Username, c.Password, c.Host, c.Port, c.VirtualHost)
	log.Printf("[RabbitMQ] 连接中: %s:%d/%s", c.Host, c.Port, c.VirtualHost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("创建通道失败: %w", err)
	}
	if c.PrefetchCount > 0 {
		if err := ch.Qos(c.PrefetchCount, 0, false); err != nil {
			log.Printf("[RabbitMQ] 设置 QoS 失败: %v", err)
		}
	}
	if err := declare(ch, c); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	mqConn = conn
	mqChannel = ch
	connClosedCh = conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosedCh = ch.NotifyClose(make(chan *amqp.Error, 1))

	log.Printf("[RabbitMQ] 初始化成功 exchange=%s queue=%s", c.Exchange, c.DraftQueue)
	go watchClose()
	return nil
}

func declare(ch *amqp.Channel, c config.RabbitCfg) error {
	if err := ch.ExchangeDeclare(c.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare failed: %w", err)
	}
	if _, err := ch.QueueDeclare(c.DraftQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s failed: %w", c.DraftQueue, err)
	}
	if err := ch.QueueBind(c.DraftQueue, "recon.statement.draft", c.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s failed: %w", c.DraftQueue, err)
	}
	return nil
}

// 监听关闭事件，触发重连
func watchClose() {
	select {
	case err, ok := <-connClosedCh:
		if ok {
			log.Printf("[RabbitMQ] 连接关闭: %v", err)
		}
	case err, ok := <-chClosedCh:
		if ok {
			log.Printf("[RabbitMQ] 通道关闭: %v", err)
		}
	}
	reconnect()
}

// 自愈重连（阻塞重试直至成功）
func reconnect() {
	mu.Lock()
	if reconnecting {
		mu.Unlock()
		return
	}
	reconnecting = true
	mu.Unlock()

	defer func() {
		mu.Lock()
		reconnecting = false
		mu.Unlock()
	}()

	for {
		log.Println("[RabbitMQ] 正在重连...")
		if err := connect(); err == nil {
			log.Println("[RabbitMQ] 重连成功")
			return
		}
		time.Sleep(5 * time.Second)
	}
}

func isConnAlive() bool {
	if mqConn == nil || connClosedCh == nil {
		return false
	}
	select {
	case <-connClosedCh:
		return false
	default:
		return true
	}
}

func isChanAlive() bool {
	if mqChannel == nil || chClosedCh == nil {
		return false
	}
	select {
	case <-chClosedCh:
		return false
	default:
		return true
	}
}

// GetChannel 断开时后台重连并返回 nil，调用方不阻塞
func GetChannel() *amqp.Channel {
	mu.Lock()
	alive := isChanAlive()
	ch := mqChannel
	mu.Unlock()
	if !alive {
		go reconnect()
		return nil
	}
	return ch
}
