package pagestack

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"

	"github.com/pagestack/pagestack-go/pagestack/statestore"
	"github.com/pagestack/pagestack-go/pagestack/tempdata"
)

// loadStores reads server/stores.json and initializes every declared state
// store. Apps that only use the cookie TempData provider can run without a
// stores file at all.
func (app *PageStack) loadStores() error {

	stViper := viper.New()
	app.StViper = stViper

	fileToLoad := ""

	if env, present := os.LookupEnv("GO_ENV"); present {
		fileToLoad = "stores." + env
		stViper.SetConfigName(fileToLoad)
	} else {
		stViper.SetConfigName("stores")
	}
	stViper.SetConfigType("json")

	stViper.AddConfigPath("./server")
	stViper.AddConfigPath(".")

	err := stViper.ReadInConfig()
	if err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			if fileToLoad != "" {
				log.Println(fmt.Sprintf("WARNING: %v.json not found, fallback to stores.json", fileToLoad))
				stViper.SetConfigName("stores")
				err = stViper.ReadInConfig()
			}
			if err != nil {
				if _, stillMissing := err.(viper.ConfigFileNotFoundError); stillMissing {
					log.Println("WARNING: stores.json not found, no state stores loaded")
					return nil
				}
				return err
			}
		default:
			return err
		}
	}

	settings := stViper.AllSettings()
	ctx := context.Background()
	for key := range settings {
		stName := stViper.GetString(key + ".name")
		if stName == "" {
			stName = key
		}
		connector := stViper.GetString(key + ".connector")
		switch connector {
		case "memorykv", "redis", "mongodb":
			st := statestore.New(key, stViper, ctx)

			if app.storeOptions != nil {
				st.Options = (*app.storeOptions)[stName]
			}

			err := st.Initialize()
			if err != nil {
				return err
			}
			(*app.stores)[stName] = st
			if app.debug {
				log.Println("Connected to store", stName, "using connector", connector)
			}
		default:
			panic("ERROR: connector " + connector + " not supported")
		}
	}
	return nil
}

// selectTempDataProvider swaps the default cookie provider for a store-backed
// one when config names a tempdata store.
func (app *PageStack) selectTempDataProvider() {
	storeName := app.Viper.GetString("tempdata.store")
	if storeName == "" {
		return
	}
	st, err := app.FindStore(storeName)
	if err != nil {
		log.Fatalf("Error while selecting tempdata store: %v", err)
	}
	app.tempData = tempdata.NewStoreProvider(st, app.Viper.GetDuration("tempdata.ttl"))
	if app.debug {
		log.Println("TempData provider:", app.tempData.Name())
	}
}
