package main

import "StrategyBacktester/internal/cli"

func main() {
	cli.Execute()
}
