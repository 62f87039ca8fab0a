package main

import (
	"github.com/shouni/go-comicflow/cmd"
)

// main はアプリケーションの唯一のエントリーポイントなのだ！
func main() {
	cmd.Execute()
}
