package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const defaultNode = "default"

var nodeMap sync.Map // map[string]*snowflake.Node

// InitNode 初始化指定名称的 Snowflake 节点
func InitNode(name string, nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("InitNode failed: %w", err)
	}
	nodeMap.Store(name, n)
	return nil
}

// NewFrom 生成指定节点的 ID，节点未初始化时 panic
func NewFrom(name string) uint64 {
	val, ok := nodeMap.Load(name)
	if !ok {
		panic(fmt.Sprintf("Snowflake node not initialized: %s", name))
	}
	return uint64(val.(*snowflake.Node).Generate().Int64())
}

// New 默认节点生成器
func New() uint64 {
	return NewFrom(defaultNode)
}

// Generator 便于测试替换的 ID 生成函数
type Generator func() uint64

// Default 默认节点的 Generator，未初始化时按节点 0 懒初始化
func Default() Generator {
	if _, ok := nodeMap.Load(defaultNode); !ok {
		_ = InitNode(defaultNode, 0)
	}
	return New
}
