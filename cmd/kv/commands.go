package kv

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setIfUnsetCmd = &cobra.Command{
		Use:   "setnx [key] [value]",
		Short: "Sets the value for a key if the key is absent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			written, err := rpcStore.SetIfUnset(key, []byte(value))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, written=%t\n", key, written)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := rpcStore.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	getSetCmd = &cobra.Command{
		Use:   "getset [key] [value]",
		Short: "Sets the value for a key and prints the previous value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			previous, ok, err := rpcStore.GetSet(key, []byte(value))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, previous=%s\n", key, ok, previous)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcStore.Delete(key); err != nil {
				return err
			} else {
				fmt.Println("delete successfully")
			}
			return nil
		},
	}
)
