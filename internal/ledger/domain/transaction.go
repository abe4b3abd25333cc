package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind 交易类型
type Kind uint8

const (
	KindDeposit    Kind = iota + 1 // 存款
	KindWithdrawal                 // 取款
	KindDispute                    // 争议
	KindResolve                    // 争议解除
	KindChargeback                 // 拒付
)

var kindNames = map[Kind]string{
	KindDeposit:    "deposit",
	KindWithdrawal: "withdrawal",
	KindDispute:    "dispute",
	KindResolve:    "resolve",
	KindChargeback: "chargeback",
}

// Kinds 全部交易类型
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// HasAmount 是否携带金额
func (k Kind) HasAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// ParseKind 解析交易类型，大小写敏感
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

// Transaction 输入交易事件
// Dispute/Resolve/Chargeback 通过 TxID 引用原存款，Amount 为零值
type Transaction struct {
	ClientID ClientID
	TxID     TxID
	Kind     Kind
	Amount   decimal.Decimal
}

// NewDeposit 存款
func NewDeposit(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{ClientID: client, TxID: tx, Kind: KindDeposit, Amount: Round(amount)}
}

// NewWithdrawal 取款
func NewWithdrawal(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{ClientID: client, TxID: tx, Kind: KindWithdrawal, Amount: Round(amount)}
}

// NewDispute 对存款 tx 发起争议
func NewDispute(client ClientID, tx TxID) Transaction {
	return Transaction{ClientID: client, TxID: tx, Kind: KindDispute}
}

// NewResolve 解除争议
func NewResolve(client ClientID, tx TxID) Transaction {
	return Transaction{ClientID: client, TxID: tx, Kind: KindResolve}
}

// NewChargeback 拒付
func NewChargeback(client ClientID, tx TxID) Transaction {
	return Transaction{ClientID: client, TxID: tx, Kind: KindChargeback}
}
