package idgen

import (
	"log"
	"os"
	"strconv"
)

// Init 初始化默认节点；环境变量 SNOWFLAKE_NODE_ID 优先（多实例部署各自不同）
func Init(defaultNodeID int64) {
	nodeID := defaultNodeID
	if s := os.Getenv("SNOWFLAKE_NODE_ID"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 || n > 1023 {
			log.Fatalf("[IDGen] Invalid SNOWFLAKE_NODE_ID: %v", s)
		}
		nodeID = n
	}
	if err := InitNode(defaultNode, nodeID); err != nil {
		log.Fatalf("[IDGen] InitNode failed: %v", err)
	}
	log.Printf("[IDGen] Snowflake node initialized: nodeID=%d", nodeID)
}
